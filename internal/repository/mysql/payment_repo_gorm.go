package mysql

import (
	"context"
	"errors"
	"log"
	"time"

	"order-service/internal/domain"
	"order-service/internal/repository"

	"gorm.io/gorm"
)

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Save(ctx context.Context, payment *domain.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		log.Printf("payment save error: %v", err)
		return err
	}
	return nil
}

func (r *paymentRepo) FindByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Where("external_intent_id = ?", intentID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByIntentID error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		log.Printf("FindByOrderID error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) CompareAndSetStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus, method string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if method != "" {
		updates["method"] = method
	}

	result := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		log.Printf("CompareAndSetStatus error: %v", result.Error)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

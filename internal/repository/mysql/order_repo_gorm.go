package mysql

import (
	"context"
	"errors"
	"log"
	"slices"

	"order-service/internal/domain"
	"order-service/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	result := r.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		log.Printf("order save error: %v", result.Error)
		return result.Error
	}

	if order.ID == 0 {
		log.Printf("WARNING: order saved but ID is still 0. Rows affected: %d", result.RowsAffected)
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByProductId(ctx context.Context, productId uint64) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).Where("product_id = ?", productId).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		log.Printf("FindByProductId error: %v", err)
		return nil, err
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		log.Printf("FindAll error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Order{}).Where("id = ?", id).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Same-value updates report zero rows on MySQL, so check existence.
			if err := tx.First(&order, id).Error; err != nil {
				return err
			}
			return nil
		}
		return tx.First(&order, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("UpdateStatus error: %v", err)
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uint64, to domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	var (
		order domain.Order
		prev  domain.OrderStatus
		moved bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if !slices.Contains(from, order.Status) {
			return nil
		}
		prev = order.Status
		result := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, prev).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		order.Status = to
		moved = true
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", nil
		}
		log.Printf("TransitionStatus error: %v", err)
		return nil, "", err
	}
	if !moved {
		return nil, "", nil
	}
	return &order, prev, nil
}

func (r *orderRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Order{}, id)
	if result.Error != nil {
		log.Printf("Delete error: %v", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher writes JSON envelopes to a single topic, keyed by pattern so a
// consumer group can route by key.
type Publisher struct {
	w *kafka.Writer
}

type Message struct {
	Pattern string      `json:"pattern"`
	Data    interface{} `json:"data"`
	ID      string      `json:"id"`
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func encode(pattern string, data interface{}) (kafka.Message, error) {
	b, err := json.Marshal(Message{Pattern: pattern, Data: data, ID: uuid.NewString()})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return kafka.Message{Key: []byte(pattern), Value: b}, nil
}

func (p *Publisher) Publish(ctx context.Context, pattern string, data interface{}) error {
	msg, err := encode(pattern, data)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }

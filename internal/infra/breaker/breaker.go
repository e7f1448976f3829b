package breaker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"order-service/internal/domain"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls. It is a transient
// failure to callers.
var ErrOpen = fmt.Errorf("%w: circuit breaker open", domain.ErrTransient)

type Settings struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial calls allowed while half-open.
	HalfOpenRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
		Interval:         time.Minute,
	}
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func New(name string, s Settings) *Breaker {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultSettings().MaxFailures
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
		// A caller giving up says nothing about the collaborator's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})}
}

// Do runs fn through the breaker. Rejected calls return an error wrapping
// ErrOpen; fn's own error is returned unchanged.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", b.cb.Name(), ErrOpen)
	}
	return err
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

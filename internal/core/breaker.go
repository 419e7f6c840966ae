package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerCompletion fails fast with an UpstreamError while the completion
// service is tripping the breaker. It never retries.
type BreakerCompletion struct {
	next   CompletionClient
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewBreakerCompletion(next CompletionClient, settings BreakerSettings, logger *zap.Logger) *BreakerCompletion {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerCompletion{next: next, cb: cb, logger: logger}
}

func (b *BreakerCompletion) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &UpstreamError{Status: 503, Err: fmt.Errorf("%w: %w", ErrCompletionUnavailable, err)}
		}
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerCompletion) State() gobreaker.State {
	return b.cb.State()
}

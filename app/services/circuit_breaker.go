package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/planeit/logging"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes when a provider circuit opens
type BreakerConfig struct {
	MaxHalfOpenRequests uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	MinRequests         uint32
	FailureRatio        float64
}

// DefaultBreakerConfig opens after a 60% failure rate over at least 10 requests
// and probes again after two minutes.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxHalfOpenRequests: 3,
		Interval:            time.Minute,
		OpenTimeout:         2 * time.Minute,
		MinRequests:         10,
		FailureRatio:        0.6,
	}
}

// Breaker guards calls to one external provider
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker creates a named circuit breaker
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	circuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("Opening circuit")
				return true
			}
			return false
		},
		// A miss or a caller cancellation says nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || isExpectedMiss(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			circuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			circuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{name: name, cb: cb}
}

// State returns the current breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// execute runs fn through the breaker and records the outcome.
// Rejections are reported as ErrProviderUnavailable.
func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	start := time.Now()

	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	providerCallDuration.WithLabelValues(b.name).Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			providerCallsTotal.WithLabelValues(b.name, "rejected").Inc()
			return zero, fmt.Errorf("%s: %w", b.name, ErrProviderUnavailable)
		case isExpectedMiss(err):
			providerCallsTotal.WithLabelValues(b.name, "miss").Inc()
		default:
			providerCallsTotal.WithLabelValues(b.name, "failure").Inc()
		}
		return zero, err
	}

	providerCallsTotal.WithLabelValues(b.name, "success").Inc()

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker %s: unexpected result type %T", b.name, result)
	}
	return typed, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

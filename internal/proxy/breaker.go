package proxy

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/router"
)

// BreakerConfig configures the per-route circuit breakers.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker.
	Threshold int

	// Timeout is how long the breaker stays open before a trial call is
	// let through.
	Timeout time.Duration
}

// newBreakers creates one breaker per route, keyed by route name.
func newBreakers(
	routes []*router.Route,
	cfg BreakerConfig,
	logger observability.Logger,
	metrics *Metrics,
) map[string]*gobreaker.CircuitBreaker {
	threshold := safeIntToUint32(cfg.Threshold)
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(routes))

	for _, route := range routes {
		breakers[route.Name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        route.Name,
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// The client going away says nothing about the upstream.
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					observability.String("route", name),
					observability.String("from", from.String()),
					observability.String("to", to.String()),
				)
				if metrics != nil {
					metrics.SetBreakerState(name, int(to))
				}
			},
		})
	}

	return breakers
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 1 {
		return 1
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	apperrors "github.com/worldboard/server/internal/utils/errors"
	"github.com/worldboard/server/internal/utils/metrics"
)

// ErrProviderUnavailable is returned while the circuit is open.
var ErrProviderUnavailable = apperrors.ServiceUnavailable("identity provider unavailable")

// BreakerConfig configures the circuit around the identity provider.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Guarded wraps a Provider with a circuit breaker. Not-found answers count
// as successes.
type Guarded struct {
	next    Provider
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewGuarded creates a new circuit-breaking provider.
func NewGuarded(next Provider, cfg BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *Guarded {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	g := &Guarded{next: next, metrics: m, logger: logger}
	g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "identity",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUserNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("identity circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m != nil {
				m.SetIdentityBreakerOpen(to == gobreaker.StateOpen)
			}
		},
	})
	return g
}

// ResolveUsername resolves a username through the breaker.
func (g *Guarded) ResolveUsername(ctx context.Context, username string) (string, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.ResolveUsername(ctx, username)
	})
	g.record("username", err)
	if err != nil {
		return "", g.translate(err)
	}
	return res.(string), nil
}

// GetProfile fetches a profile through the breaker.
func (g *Guarded) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.GetProfile(ctx, userID)
	})
	g.record("profile", err)
	if err != nil {
		return nil, g.translate(err)
	}
	return res.(*model.Profile), nil
}

// State returns the current circuit state.
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}

func (g *Guarded) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrProviderUnavailable
	}
	return err
}

func (g *Guarded) record(op string, err error) {
	if g.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	g.metrics.RecordIdentityLookup(op, result)
}

package email

import (
	"hiretrack/internal/config"
	"hiretrack/internal/errors"

	"github.com/sendgrid/rest"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps outbound email delivery with circuit breaker
// protection so a degraded provider cannot stall request handling.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*rest.Response]
}

// NewCircuitBreaker creates a circuit breaker for the email provider.
// Returns nil when the breaker is disabled in configuration.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "Email",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*rest.Response](settings),
	}
}

// Execute runs the provided delivery function with circuit breaker
// protection. A nil breaker executes the function directly.
func (cb *CircuitBreaker) Execute(fn func() (*rest.Response, error)) (*rest.Response, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

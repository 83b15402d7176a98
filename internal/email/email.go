// Package email delivers transactional mail through SendGrid. Delivery
// is best-effort: callers log failures but never fail a request over a
// mail problem.
package email

import (
	"context"
	"fmt"
	"time"

	"hiretrack/internal/config"
	"hiretrack/internal/errors"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers a single message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client is the SendGrid-backed Sender.
type Client struct {
	sg      *sendgrid.Client
	breaker *CircuitBreaker
	from    *mail.Email
	timeout time.Duration
	logger  *errors.Logger
}

// NewClient builds a Sender from configuration. When email delivery is
// disabled it returns a no-op sender, so callers never need to branch.
func NewClient(cfg config.EmailConfig, logger *errors.Logger) Sender {
	if !cfg.Enabled {
		logger.Debug("Email delivery disabled, using no-op sender")
		return NopSender{}
	}

	return &Client{
		sg:      sendgrid.NewSendClient(cfg.APIKey),
		breaker: NewCircuitBreaker(cfg.CircuitBreaker, logger),
		from:    mail.NewEmail(cfg.FromName, cfg.FromAddress),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Send delivers one plain-text message through SendGrid. The configured
// provider timeout bounds the request on top of the caller's context.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	message := mail.NewSingleEmail(c.from, subject, mail.NewEmail("", to), body, "")

	resp, err := c.breaker.Execute(func() (*rest.Response, error) {
		return c.sg.SendWithContext(ctx, message)
	})
	if err != nil {
		return errors.NewEmailError(errors.ErrCodeEmailSendFailed, "Failed to deliver email", err).
			WithContext("recipient", to).
			WithContext("subject", subject)
	}
	if resp.StatusCode >= 400 {
		return errors.NewEmailError(errors.ErrCodeEmailSendFailed,
			fmt.Sprintf("Email provider returned status %d", resp.StatusCode), nil).
			WithContext("recipient", to).
			WithContext("subject", subject)
	}

	c.logger.Debug("Email delivered", "recipient", to, "subject", subject, "status", resp.StatusCode)
	return nil
}

// BreakerStats exposes circuit breaker state for health reporting.
func (c *Client) BreakerStats() map[string]any {
	return c.breaker.GetStats()
}

// NopSender discards every message. Used when delivery is disabled and
// in tests.
type NopSender struct{}

func (NopSender) Send(context.Context, string, string, string) error { return nil }

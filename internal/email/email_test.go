package email

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hiretrack/internal/config"
	"hiretrack/internal/errors"
)

func TestNewClientAppliesProviderTimeout(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)

	sender := NewClient(config.EmailConfig{
		Enabled:     true,
		APIKey:      "SG.test",
		FromName:    "HireTrack",
		FromAddress: "no-reply@hiretrack.local",
		Timeout:     3 * time.Second,
	}, logger)

	client, ok := sender.(*Client)
	require.True(t, ok)
	require.Equal(t, 3*time.Second, client.timeout)
}

func TestNewClientDisabledReturnsNop(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)

	sender := NewClient(config.EmailConfig{Enabled: false}, logger)
	_, ok := sender.(NopSender)
	require.True(t, ok)
	require.NoError(t, sender.Send(t.Context(), "x@example.com", "s", "b"))
}

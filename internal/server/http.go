// Package server is the HTTP API surface. Handlers decode and validate
// requests, delegate to the screening and storage layers, and translate
// typed errors into the response taxonomy.
package server

import (
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/config"
	"hiretrack/internal/email"
	hiretrackErrors "hiretrack/internal/errors"
	"hiretrack/internal/notify"
	"hiretrack/internal/screening"
	"hiretrack/internal/store"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and collaborators for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertWatcher *CertWatcher

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Domain collaborators
	Store    *store.Store
	Auth     *auth.Manager
	Reporter *screening.Reporter
	Sender   email.Sender
	Notifier *notify.Notifier

	// Logger
	Logger *hiretrackErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, st *store.Store, authMgr *auth.Manager, logger *hiretrackErrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	sender := email.NewClient(appCfg.Email, logger)

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Store:          st,
		Auth:           authMgr,
		Reporter:       screening.NewReporter(st),
		Sender:         sender,
		Notifier:       notify.NewNotifier(st, sender, logger),
		Logger:         logger,
	}
}

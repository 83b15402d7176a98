package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"hiretrack/internal/observability"
)

// configureTLS sets up TLS on the HTTP server based on the configured
// mode.
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	addr := httpServer.Addr

	switch s.TLSConfig.Mode {
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", addr)
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", addr)
	case "disabled", "":
		fmt.Printf("Starting server on http://%s\n", addr)
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	if err := s.setupCertWatcher(om); err != nil {
		return err
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig

	return nil
}

// setupCertWatcher starts the file watcher when auto-reload is enabled.
// Content-based certificates cannot be watched.
func (s *Server) setupCertWatcher(om *observability.ObservabilityManager) error {
	if !s.TLSConfig.AutoReload.Enabled {
		return nil
	}
	if s.TLSConfig.CertFile == "" || s.TLSConfig.KeyFile == "" {
		s.Logger.Warn("TLS auto-reload enabled but certificate is not file-based, skipping watcher")
		return nil
	}

	watcher, err := NewCertWatcher(s.TLSConfig.CertFile, s.TLSConfig.KeyFile,
		s.TLSConfig.AutoReload.DebounceDelay, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	if om != nil {
		watcher.OnReload = func() {
			om.GetMetrics().RecordPipelineMetric(context.Background(), "cert_reload", true)
		}
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	s.CertWatcher = watcher

	fmt.Println("TLS auto-reload: ENABLED")
	return nil
}

// buildTLSConfig creates the TLS configuration.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if s.CertWatcher != nil {
		tlsConfig.GetCertificate = s.CertWatcher.GetCertificate
	} else {
		cert, err := s.loadServerCertificate()
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if s.TLSConfig.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if err := s.configureClientAuthentication(tlsConfig); err != nil {
		return nil, err
	}

	return tlsConfig, nil
}

// loadServerCertificate loads the server certificate from content or
// files. Content takes precedence because it is how Vault-delivered
// certificates arrive.
func (s *Server) loadServerCertificate() (tls.Certificate, error) {
	if s.TLSConfig.CertContent != "" && s.TLSConfig.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(s.TLSConfig.CertContent), []byte(s.TLSConfig.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if s.TLSConfig.CertFile != "" && s.TLSConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// configureClientAuthentication sets up client authentication for
// mutual TLS.
func (s *Server) configureClientAuthentication(tlsConfig *tls.Config) error {
	if s.TLSConfig.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return nil
	}

	caCertPool := x509.NewCertPool()
	caCert, err := s.loadCACertificate()
	if err != nil {
		return err
	}
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return fmt.Errorf("failed to append CA cert")
	}

	tlsConfig.ClientCAs = caCertPool
	tlsConfig.ClientAuth = s.getClientAuthPolicy()

	return nil
}

// loadCACertificate loads the CA certificate from content or file.
func (s *Server) loadCACertificate() ([]byte, error) {
	if s.TLSConfig.CAContent != "" {
		return []byte(s.TLSConfig.CAContent), nil
	}

	if s.TLSConfig.CAFile != "" {
		caCert, err := os.ReadFile(s.TLSConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		return caCert, nil
	}

	return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
}

// getClientAuthPolicy returns the appropriate client authentication
// policy.
func (s *Server) getClientAuthPolicy() tls.ClientAuthType {
	switch s.TLSConfig.ClientAuthPolicy {
	case "require":
		return tls.RequireAndVerifyClientCert
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert // Default for mutual TLS
	}
}

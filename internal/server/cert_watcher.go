package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"hiretrack/internal/errors"
)

// CertWatcher holds the server certificate, serves it to the TLS stack,
// and hot-reloads it when the certificate or key file changes on disk.
type CertWatcher struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	cert   *tls.Certificate
	leaf   *x509.Certificate
	logger *errors.Logger

	// OnReload, when set, runs after every successful reload.
	OnReload func()

	reloadCount atomic.Int64

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer
	stopChan      chan struct{}
	reloadChan    chan struct{}
	running       bool
}

// NewCertWatcher loads the initial certificate pair from disk.
func NewCertWatcher(certFile, keyFile string, debounceDelay time.Duration, logger *errors.Logger) (*CertWatcher, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	cw := &CertWatcher{
		certFile:      certFile,
		keyFile:       keyFile,
		logger:        logger,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
	}
	if err := cw.loadCertificate(); err != nil {
		return nil, err
	}
	return cw, nil
}

// loadCertificate reads the pair from disk and parses the leaf for
// expiry reporting.
func (cw *CertWatcher) loadCertificate() error {
	cert, err := tls.LoadX509KeyPair(cw.certFile, cw.keyFile)
	if err != nil {
		return fmt.Errorf("loading certificate pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parsing certificate: %w", err)
	}

	cw.mu.Lock()
	cw.cert = &cert
	cw.leaf = leaf
	cw.mu.Unlock()
	return nil
}

// GetCertificate is the tls.Config callback serving the current pair.
func (cw *CertWatcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	if cw.cert == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cw.cert, nil
}

// CheckExpiry returns how long the current certificate remains valid.
// Negative means expired.
func (cw *CertWatcher) CheckExpiry() (time.Duration, error) {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	if cw.leaf == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(cw.leaf.NotAfter), nil
}

// ReloadCount returns how many reloads have succeeded since startup.
func (cw *CertWatcher) ReloadCount() int64 {
	return cw.reloadCount.Load()
}

// Start begins watching the certificate and key files for changes.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	for _, file := range []string{cw.certFile, cw.keyFile} {
		if err := cw.fsWatcher.Add(file); err != nil {
			cw.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
		// Watch the directory too so atomic writes (rename) are caught.
		if err := cw.fsWatcher.Add(filepath.Dir(file)); err != nil {
			cw.logger.Warn("Failed to watch certificate directory",
				"directory", filepath.Dir(file), "error", err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	cw.logger.Info("Certificate file watcher started",
		"cert_file", cw.certFile,
		"key_file", cw.keyFile,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the certificate file watcher.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	if cw.fsWatcher != nil {
		if err := cw.fsWatcher.Close(); err != nil {
			cw.logger.LogError(err, "Failed to close file system watcher")
			return err
		}
	}

	cw.running = false
	cw.logger.Info("Certificate file watcher stopped")
	return nil
}

// watchLoop is the main event loop for file watching
func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.shouldProcessEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "File watcher error")

		case <-cw.reloadChan:
			cw.reload()

		case <-cw.stopChan:
			return
		}
	}
}

// reload re-reads the pair from disk. A failed reload keeps serving the
// previous certificate.
func (cw *CertWatcher) reload() {
	if err := cw.loadCertificate(); err != nil {
		cw.logger.LogError(err, "Certificate reload failed, keeping previous certificate")
		return
	}
	cw.reloadCount.Add(1)
	cw.logger.Info("Certificate reloaded", "reload_count", cw.reloadCount.Load())
	if cw.OnReload != nil {
		cw.OnReload()
	}
}

// shouldProcessEvent filters events down to writes, creates and renames
// of the watched files.
func (cw *CertWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	watched := event.Name == cw.certFile || event.Name == cw.keyFile ||
		filepath.Base(event.Name) == filepath.Base(cw.certFile) ||
		filepath.Base(event.Name) == filepath.Base(cw.keyFile)
	if !watched {
		return false
	}
	if event.Op&fsnotify.Remove != 0 {
		// Editors that replace files emit remove+create; stat confirms.
		if _, err := os.Stat(event.Name); err != nil {
			return false
		}
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

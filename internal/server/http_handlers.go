package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"hiretrack/internal/errors"
)

// healthHandler reports service, storage and certificate health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "hiretrack",
		"version": s.Version,
	}

	overallHealthy := true

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	storageStatus := map[string]any{"available": true}
	if err := s.Store.Ping(ctx); err != nil {
		overallHealthy = false
		storageStatus["available"] = false
		storageStatus["error"] = "storage unreachable"
		s.Logger.LogError(err, "Health check storage ping failed")
	}
	response["storage"] = storageStatus

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	if statsProvider, ok := s.Sender.(interface{ BreakerStats() map[string]any }); ok {
		response["email_circuit_breaker"] = statsProvider.BreakerStats()
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkCertificateHealth summarizes TLS certificate state when a watcher is active
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertWatcher == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertWatcher.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["auto_reload"] = map[string]any{
		"enabled":      s.TLSConfig.AutoReload.Enabled,
		"reload_count": s.CertWatcher.ReloadCount(),
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "hiretrack",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeAppError surfaces a typed application error to the client. Storage
// and internal failures are logged with their cause but returned opaque.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	appErr := errors.AsAppError(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "code", appErr.Code)
		writeErrorResponse(w, appErr.Code, "Internal server error", status)
		return
	}
	writeErrorResponse(w, appErr.Code, appErr.Message, status)
}

// parsePositiveInt parses a decimal string as a positive integer
func parsePositiveInt(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return id, nil
}

// pathID parses the {id} path segment as a positive integer
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid id in path", err)
	}
	return id, nil
}

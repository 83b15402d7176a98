package server

import (
	"context"
	"net/http"
	"strings"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/observability"
	"hiretrack/internal/types"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	if om != nil {
		s.Notifier.OnEmailResult = func(success bool) {
			om.GetMetrics().RecordPipelineMetric(context.Background(), "email_sent", success)
		}
	}

	rate := s.createRateLimitMiddleware(om)
	limit := s.requestSizeLimitMiddleware()
	authed := s.authMiddleware
	staff := func(next http.HandlerFunc) http.HandlerFunc {
		return authed(s.requireRoles(next, types.RoleRecruiter, types.RoleAdmin))
	}
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return authed(s.requireRoles(next, types.RoleAdmin))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// Accounts and sessions
	mux.HandleFunc("POST /api/auth/register", rate(limit(s.registerHandler)))
	mux.HandleFunc("POST /api/auth/login", rate(limit(s.loginHandler)))
	mux.HandleFunc("GET /api/auth/me", rate(authed(s.meHandler)))
	mux.HandleFunc("POST /api/auth/logout", rate(authed(s.logoutHandler)))

	// User administration
	mux.HandleFunc("GET /api/users", rate(admin(s.listUsersHandler)))
	mux.HandleFunc("POST /api/users", rate(admin(limit(s.createUserHandler))))
	mux.HandleFunc("GET /api/users/{id}", rate(admin(s.getUserHandler)))
	mux.HandleFunc("PATCH /api/users/{id}", rate(admin(limit(s.updateUserHandler))))
	mux.HandleFunc("DELETE /api/users/{id}", rate(admin(s.deleteUserHandler)))

	// Jobs: browsing is public, management is staff-only
	mux.HandleFunc("GET /api/jobs", rate(s.listJobsHandler))
	mux.HandleFunc("GET /api/jobs/{id}", rate(s.getJobHandler))
	mux.HandleFunc("POST /api/jobs", rate(staff(limit(s.createJobHandler))))
	mux.HandleFunc("PATCH /api/jobs/{id}", rate(staff(limit(s.updateJobHandler))))
	mux.HandleFunc("DELETE /api/jobs/{id}", rate(staff(s.deleteJobHandler)))

	// Applications: anyone can apply, reading is scoped by role
	mux.HandleFunc("POST /api/applications", rate(limit(s.createApplicationHandler(om))))
	mux.HandleFunc("GET /api/applications", rate(authed(s.listApplicationsHandler)))
	mux.HandleFunc("GET /api/applications/{id}", rate(authed(s.getApplicationHandler)))
	mux.HandleFunc("PATCH /api/applications/{id}/status", rate(staff(limit(s.updateApplicationStatusHandler))))

	// Candidate profiles
	mux.HandleFunc("GET /api/profile", rate(authed(s.getProfileHandler)))
	mux.HandleFunc("PUT /api/profile", rate(authed(limit(s.putProfileHandler))))
	mux.HandleFunc("GET /api/profiles", rate(staff(s.lookupProfileHandler)))

	// Evaluations and screening
	mux.HandleFunc("GET /api/evaluations/screening", rate(authed(s.screeningHandler(om))))
	mux.HandleFunc("GET /api/evaluations", rate(staff(s.listEvaluationsHandler)))
	mux.HandleFunc("POST /api/evaluations", rate(staff(limit(s.createEvaluationHandler(om)))))
	mux.HandleFunc("GET /api/evaluations/{id}", rate(staff(s.getEvaluationHandler)))

	// Interviews
	mux.HandleFunc("POST /api/interviews", rate(staff(limit(s.createInterviewHandler))))
	mux.HandleFunc("GET /api/interviews", rate(staff(s.listInterviewsHandler)))
	mux.HandleFunc("GET /api/interviews/{id}", rate(staff(s.getInterviewHandler)))
	mux.HandleFunc("PATCH /api/interviews/{id}", rate(staff(limit(s.updateInterviewHandler))))

	// Offers
	mux.HandleFunc("POST /api/offers", rate(staff(limit(s.createOfferHandler))))
	mux.HandleFunc("GET /api/offers", rate(staff(s.listOffersHandler)))
	mux.HandleFunc("GET /api/offers/{id}", rate(staff(s.getOfferHandler)))

	// Final outcomes
	mux.HandleFunc("POST /api/results", rate(staff(limit(s.createResultHandler))))
	mux.HandleFunc("GET /api/results", rate(staff(s.listResultsHandler)))
	mux.HandleFunc("GET /api/results/{id}", rate(staff(s.getResultHandler)))

	// Hiring process definitions
	mux.HandleFunc("POST /api/processes", rate(staff(limit(s.createProcessHandler))))
	mux.HandleFunc("GET /api/processes", rate(staff(s.listProcessesHandler)))
	mux.HandleFunc("GET /api/processes/{id}", rate(staff(s.getProcessHandler)))
	mux.HandleFunc("PATCH /api/processes/{id}", rate(staff(limit(s.updateProcessHandler))))
	mux.HandleFunc("DELETE /api/processes/{id}", rate(staff(s.deleteProcessHandler)))

	// Notifications
	mux.HandleFunc("GET /api/notifications", rate(authed(s.listNotificationsHandler)))
	mux.HandleFunc("POST /api/notifications/{id}/read", rate(authed(s.markNotificationReadHandler)))

	// Criteria catalog: browsing is public, management is admin-only
	mux.HandleFunc("GET /api/criteria", rate(s.listCriteriaHandler))
	mux.HandleFunc("POST /api/criteria", rate(admin(limit(s.createCriterionHandler))))
	mux.HandleFunc("PATCH /api/criteria/{id}", rate(admin(limit(s.updateCriterionHandler))))
	mux.HandleFunc("DELETE /api/criteria/{id}", rate(admin(s.deleteCriterionHandler)))

	return mux
}

// authMiddleware authenticates the bearer token and stores the caller
// identity in the request context.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			s.Logger.Info("Authentication failed: missing token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			s.writeAppError(w, errors.NewUnauthorizedError(errors.ErrCodeMissingToken, "Authorization Bearer token required"))
			return
		}

		principal, err := s.Auth.Verify(token)
		if err != nil {
			s.Logger.Info("Authentication failed: invalid token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			s.writeAppError(w, err)
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// requireRoles rejects authenticated callers whose role is not listed.
func (s *Server) requireRoles(next http.HandlerFunc, roles ...types.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			s.writeAppError(w, errors.NewUnauthorizedError(errors.ErrCodeMissingToken, "Authorization Bearer token required"))
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				next(w, r)
				return
			}
		}
		s.Logger.Info("Authorization failed: insufficient role",
			"endpoint", r.URL.Path,
			"role", string(principal.Role))
		s.writeAppError(w, errors.NewForbiddenError(errors.ErrCodeForbidden, "Forbidden"))
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

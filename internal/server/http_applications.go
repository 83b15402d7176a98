package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/observability"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

// applicationStatuses are the recognized pipeline states for an
// application.
var applicationStatuses = map[string]bool{
	"submitted": true,
	"screening": true,
	"interview": true,
	"offer":     true,
	"hired":     true,
	"rejected":  true,
}

type applicationRequest struct {
	JobID       int64  `json:"job_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	ResumeURL   string `json:"resume_url,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`
}

// createApplicationHandler accepts a public application for an open
// job and notifies the applicant that it was received.
func (s *Server) createApplicationHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applicationRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.JobID <= 0 || req.FullName == "" || req.Email == "" {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "job_id, full_name and email are required", nil))
			return
		}

		job, err := s.Store.GetJobByID(r.Context(), req.JobID)
		if err != nil {
			s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err))
			return
		}
		if job == nil {
			s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found"))
			return
		}
		if job.Status != "open" {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job is not accepting applications", nil))
			return
		}

		app := &types.Application{
			JobID:       req.JobID,
			FullName:    req.FullName,
			Email:       req.Email,
			Phone:       req.Phone,
			ResumeURL:   req.ResumeURL,
			CoverLetter: req.CoverLetter,
		}
		if err := s.Store.CreateApplication(r.Context(), app); err != nil {
			s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating application failed", err))
			return
		}

		if om != nil {
			om.GetMetrics().RecordPipelineMetric(r.Context(), "application_received", true)
		}
		s.Notifier.ApplicationReceived(r.Context(), app, job)

		s.Logger.Info("Application received", "application_id", app.ID, "job_id", job.ID)
		respondJSON(w, http.StatusCreated, app)
	}
}

// listApplicationsHandler lists applications visible to the caller.
// Candidates see only their own submissions; recruiters see only
// applications to jobs they posted; admins see everything. ?job_id= and
// ?q= narrow further.
func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	opts := store.ListApplicationsOptions{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("job_id"); raw != "" {
		jobID, err := parsePositiveInt(raw)
		if err != nil {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid job_id", err))
			return
		}
		opts.JobID = &jobID
	}

	switch principal.Role {
	case types.RoleAdmin:
	case types.RoleRecruiter:
		opts.PostedBy = &principal.ID
	default:
		opts.Email = principal.Email
	}

	apps, err := s.Store.ListApplications(r.Context(), opts)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing applications failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (s *Server) getApplicationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	app, err := s.Store.GetApplicationByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading application failed", err))
		return
	}
	if app == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Application not found"))
		return
	}
	if err := s.requireApplicationAccess(r, app); err != nil {
		s.writeAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

// requireApplicationAccess checks the caller may read one application.
// Candidates match by email, recruiters by job ownership.
func (s *Server) requireApplicationAccess(r *http.Request, app *types.Application) error {
	principal, _ := auth.PrincipalFrom(r.Context())
	switch principal.Role {
	case types.RoleAdmin:
		return nil
	case types.RoleRecruiter:
		job, err := s.Store.GetJobByID(r.Context(), app.JobID)
		if err != nil {
			return errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err)
		}
		if job == nil || job.PostedBy == nil || *job.PostedBy != principal.ID {
			return errors.NewForbiddenError(errors.ErrCodeNotOwner, "Forbidden")
		}
		return nil
	default:
		if strings.EqualFold(app.Email, principal.Email) {
			return nil
		}
		return errors.NewForbiddenError(errors.ErrCodeForbidden, "Forbidden")
	}
}

// updateApplicationStatusHandler moves an application through the
// pipeline and notifies the applicant of the change.
func (s *Server) updateApplicationStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if !applicationStatuses[req.Status] {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown application status", nil))
		return
	}

	app, err := s.Store.GetApplicationByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading application failed", err))
		return
	}
	if app == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Application not found"))
		return
	}
	if err := s.requireApplicationAccess(r, app); err != nil {
		s.writeAppError(w, err)
		return
	}

	app, err = s.Store.UpdateApplicationStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating application failed", err))
		return
	}
	if app == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Application not found"))
		return
	}

	job, err := s.Store.GetJobByID(r.Context(), app.JobID)
	if err == nil && job != nil {
		s.Notifier.ApplicationStatusChanged(r.Context(), app, job)
	}

	respondJSON(w, http.StatusOK, app)
}

// getProfileHandler returns the caller's own profile, or an empty one
// when nothing has been stored yet.
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	profile, err := s.Store.GetProfile(r.Context(), principal.ID)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading profile failed", err))
		return
	}
	if profile == nil {
		profile = &types.Profile{UserID: principal.ID}
	}
	respondJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Scores map[string]float64 `json:"scores"`
	Extra  json.RawMessage    `json:"extra,omitempty"`
}

// putProfileHandler replaces the caller's score snapshot. Scores must
// be a flat map of criterion key to number; negative values are
// rejected here so screening never sees them.
func (s *Server) putProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	for key, value := range req.Scores {
		if key == "" || value < 0 {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "scores must map non-empty keys to non-negative numbers", nil))
			return
		}
	}

	scores, err := json.Marshal(req.Scores)
	if err != nil {
		s.writeAppError(w, errors.NewInternalError(errors.ErrCodeInternal, "encoding scores failed", err))
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	profile, err := s.Store.UpsertProfile(r.Context(), principal.ID, scores, req.Extra)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "saving profile failed", err))
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// lookupProfileHandler resolves a candidate profile by account email,
// the same join screening uses.
func (s *Server) lookupProfileHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "email query parameter is required", nil))
		return
	}

	userID, found, err := s.Store.FindUserIDByEmail(r.Context(), email)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "resolving account failed", err))
		return
	}
	if !found {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "No account for this email"))
		return
	}

	profile, err := s.Store.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading profile failed", err))
		return
	}
	if profile == nil {
		profile = &types.Profile{UserID: userID}
	}
	respondJSON(w, http.StatusOK, profile)
}

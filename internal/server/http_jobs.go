package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

type jobRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Department   string          `json:"department,omitempty"`
	Location     string          `json:"location,omitempty"`
	Requirements json.RawMessage `json:"requirements,omitempty"`
	Status       string          `json:"status,omitempty"`
}

// listJobsHandler lists postings, optionally filtered by a substring
// via ?q=. Public, no authentication required; ?mine=true narrows the
// list to the caller's own postings and needs a valid token.
func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	opts := store.ListJobsOptions{Query: r.URL.Query().Get("q")}
	if r.URL.Query().Get("mine") == "true" {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.writeAppError(w, errors.NewUnauthorizedError(errors.ErrCodeMissingToken, "Authorization Bearer token required"))
			return
		}
		principal, err := s.Auth.Verify(token)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		opts.PostedBy = &principal.ID
	}
	jobs, err := s.Store.ListJobs(r.Context(), opts)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing jobs failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	job, err := s.Store.GetJobByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err))
		return
	}
	if job == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found"))
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// createJobHandler posts a new job owned by the caller.
func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "title is required", nil))
		return
	}
	if err := validateRequirements(req.Requirements); err != nil {
		s.writeAppError(w, err)
		return
	}

	principal, _ := auth.PrincipalFrom(r.Context())
	job := &types.Job{
		Title:        req.Title,
		Slug:         slugify(req.Title),
		Description:  req.Description,
		Department:   req.Department,
		Location:     req.Location,
		PostedBy:     &principal.ID,
		Requirements: req.Requirements,
		Status:       req.Status,
	}
	if err := s.Store.CreateJob(r.Context(), job); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating job failed", err))
		return
	}

	s.Logger.Info("Job posted", "job_id", job.ID, "title", job.Title, "posted_by", principal.ID)
	respondJSON(w, http.StatusCreated, job)
}

// updateJobHandler applies a partial update. Recruiters may only touch
// their own postings; admins may touch any.
func (s *Server) updateJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := s.requireJobOwnership(r, id); err != nil {
		s.writeAppError(w, err)
		return
	}

	var req struct {
		Title        *string         `json:"title,omitempty"`
		Description  *string         `json:"description,omitempty"`
		Department   *string         `json:"department,omitempty"`
		Location     *string         `json:"location,omitempty"`
		Requirements json.RawMessage `json:"requirements,omitempty"`
		Status       *string         `json:"status,omitempty"`
	}
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if err := validateRequirements(req.Requirements); err != nil {
		s.writeAppError(w, err)
		return
	}

	closing := false
	if req.Status != nil && *req.Status == "closed" {
		prior, err := s.Store.GetJobByID(r.Context(), id)
		if err != nil {
			s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err))
			return
		}
		closing = prior != nil && prior.Status != "closed"
	}

	job, err := s.Store.UpdateJob(r.Context(), id, store.JobUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Department:   req.Department,
		Location:     req.Location,
		Requirements: req.Requirements,
		Status:       req.Status,
	})
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating job failed", err))
		return
	}
	if job == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found"))
		return
	}
	if closing {
		s.closeOutApplications(r.Context(), job)
	}
	respondJSON(w, http.StatusOK, job)
}

// closeOutApplications rejects every application still in flight for a
// job that just closed, records a rejected result for each one that has
// none, and notifies the candidates. Best-effort: failures are logged
// and the close still succeeds.
func (s *Server) closeOutApplications(ctx context.Context, job *types.Job) {
	active := map[string]bool{"submitted": true, "screening": true, "interview": true}
	apps, err := s.Store.ListApplicationsByJob(ctx, job.ID)
	if err != nil {
		s.Logger.LogError(err, "Failed to list applications for closing job", "job_id", job.ID)
		return
	}
	for i := range apps {
		app := &apps[i]
		if !active[app.Status] {
			continue
		}
		if _, err := s.Store.UpdateApplicationStatus(ctx, app.ID, "rejected"); err != nil {
			s.Logger.LogError(err, "Failed to reject application on job close", "application_id", app.ID)
			continue
		}
		app.Status = "rejected"
		has, err := s.Store.HasResultForApplication(ctx, app.ID)
		if err != nil {
			s.Logger.LogError(err, "Failed to check result on job close", "application_id", app.ID)
		} else if !has {
			res := &types.Result{ApplicationID: app.ID, Outcome: "rejected", Notes: "Job closed"}
			if err := s.Store.CreateResult(ctx, res); err != nil {
				s.Logger.LogError(err, "Failed to record result on job close", "application_id", app.ID)
			}
		}
		s.Notifier.ApplicationRejected(ctx, app, job)
	}
	s.Logger.Info("Job closed", "job_id", job.ID, "title", job.Title)
}

func (s *Server) deleteJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := s.requireJobOwnership(r, id); err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := s.Store.DeleteJob(r.Context(), id); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "deleting job failed", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireJobOwnership resolves the job and checks the caller may manage
// it. Admins bypass the ownership check.
func (s *Server) requireJobOwnership(r *http.Request, jobID int64) error {
	principal, _ := auth.PrincipalFrom(r.Context())
	if principal.Role == types.RoleAdmin {
		return nil
	}
	job, err := s.Store.GetJobByID(r.Context(), jobID)
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err)
	}
	if job == nil {
		return errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found")
	}
	if job.PostedBy == nil || *job.PostedBy != principal.ID {
		return errors.NewForbiddenError(errors.ErrCodeNotOwner, "Forbidden")
	}
	return nil
}

// validateRequirements rejects a requirements document that is not
// valid JSON. Shape problems inside the document are tolerated at
// screening time instead, where malformed criteria degrade rather than
// fail.
func validateRequirements(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "requirements must be valid JSON", nil)
	}
	return nil
}

// slugify lowercases the title and collapses runs of non-alphanumerics
// into single hyphens.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

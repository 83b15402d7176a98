package server

import (
	"context"
	"net/http"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/observability"
	"hiretrack/internal/screening"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

// screeningHandler builds the ranked screening report for one job. The
// reporter enforces job ownership, so the route itself only requires
// authentication.
func (s *Server) screeningHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("job_id")
		if raw == "" {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "job_id query parameter is required", nil))
			return
		}
		jobID, err := parsePositiveInt(raw)
		if err != nil {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid job_id", err))
			return
		}

		principal, _ := auth.PrincipalFrom(r.Context())

		var report *screening.Report
		run := func(ctx context.Context) error {
			var err error
			report, err = s.Reporter.BuildReport(ctx, jobID, principal)
			return err
		}

		if om != nil {
			err = om.GetMetrics().TrackScreening(r.Context(), run, om)
		} else {
			err = run(r.Context())
		}
		if err != nil {
			s.writeAppError(w, err)
			return
		}

		s.Logger.Info("Screening report built",
			"job_id", jobID,
			"applicants", len(report.Results),
			"caller", principal.ID)
		respondJSON(w, http.StatusOK, report)
	}
}

type evaluationRequest struct {
	ApplicationID int64   `json:"application_id"`
	StageID       *int64  `json:"stage_id,omitempty"`
	Score         float64 `json:"score"`
	Comments      string  `json:"comments,omitempty"`
}

// createEvaluationHandler records a recruiter's manual score for one
// application.
func (s *Server) createEvaluationHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluationRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
			return
		}
		if req.ApplicationID <= 0 {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "application_id is required", nil))
			return
		}
		if req.Score < 0 || req.Score > 100 {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "score must be between 0 and 100", nil))
			return
		}

		app, err := s.Store.GetApplicationByID(r.Context(), req.ApplicationID)
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

		eval := &types.Evaluation{
			ApplicationID: req.ApplicationID,
			StageID:       req.StageID,
			Score:         req.Score,
			Comments:      req.Comments,
		}
		if err := s.Store.CreateEvaluation(r.Context(), eval); err != nil {
			s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "recording evaluation failed", err))
			return
		}

		if om != nil {
			om.GetMetrics().RecordPipelineMetric(r.Context(), "evaluation_recorded", true)
		}
		s.Notifier.EvaluationRecorded(r.Context(), app)
		respondJSON(w, http.StatusCreated, eval)
	}
}

func (s *Server) listEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	evals, err := s.Store.ListEvaluations(r.Context())
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing evaluations failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"evaluations": evals})
}

func (s *Server) getEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	eval, err := s.Store.GetEvaluationByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading evaluation failed", err))
		return
	}
	if eval == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Evaluation not found"))
		return
	}
	respondJSON(w, http.StatusOK, eval)
}

// listCriteriaHandler returns the shared criterion catalog. The public
// view is limited to active entries; ?all=true includes retired ones.
func (s *Server) listCriteriaHandler(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	criteria, err := s.Store.ListCriteria(r.Context(), activeOnly)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing criteria failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"criteria": criteria})
}

type criterionRequest struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Active *bool   `json:"active,omitempty"`
}

func (s *Server) createCriterionHandler(w http.ResponseWriter, r *http.Request) {
	var req criterionRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if req.Key == "" || req.Label == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "key and label are required", nil))
		return
	}
	if req.Max <= req.Min {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "max must exceed min", nil))
		return
	}

	def := &types.CriterionDef{
		Key:    req.Key,
		Label:  req.Label,
		Min:    req.Min,
		Max:    req.Max,
		Step:   req.Step,
		Active: true,
	}
	if req.Active != nil {
		def.Active = *req.Active
	}
	if err := s.Store.CreateCriterion(r.Context(), def); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating criterion failed", err))
		return
	}
	respondJSON(w, http.StatusCreated, def)
}

func (s *Server) updateCriterionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	var req struct {
		Label  *string  `json:"label,omitempty"`
		Min    *float64 `json:"min,omitempty"`
		Max    *float64 `json:"max,omitempty"`
		Step   *float64 `json:"step,omitempty"`
		Active *bool    `json:"active,omitempty"`
	}
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	def, err := s.Store.UpdateCriterion(r.Context(), id, store.CriterionUpdate{
		Label:  req.Label,
		Min:    req.Min,
		Max:    req.Max,
		Step:   req.Step,
		Active: req.Active,
	})
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating criterion failed", err))
		return
	}
	if def == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Criterion not found"))
		return
	}
	respondJSON(w, http.StatusOK, def)
}

func (s *Server) deleteCriterionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	deleted, err := s.Store.DeleteCriterion(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "deleting criterion failed", err))
		return
	}
	if !deleted {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Criterion not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

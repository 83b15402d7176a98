package server

import (
	"net/http"
	"strings"
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

type resultRequest struct {
	ApplicationID int64  `json:"application_id"`
	Outcome       string `json:"result"`
	Notes         string `json:"notes,omitempty"`
	Offer         *struct {
		StartDate *time.Time `json:"start_date,omitempty"`
		Position  string     `json:"position,omitempty"`
		Salary    string     `json:"salary,omitempty"`
		Content   string     `json:"content,omitempty"`
	} `json:"offer,omitempty"`
}

// hiredOutcomes are the result values that mean the candidate passed
// and should receive an offer.
var hiredOutcomes = map[string]bool{
	"passed":   true,
	"accepted": true,
	"hired":    true,
	"offer":    true,
}

// createResultHandler records the final outcome for an application. A
// passing outcome also extends an offer and notifies the candidate.
func (s *Server) createResultHandler(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if req.ApplicationID <= 0 || strings.TrimSpace(req.Outcome) == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "application_id and result are required", nil))
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

	res := &types.Result{
		ApplicationID: req.ApplicationID,
		Outcome:       req.Outcome,
		Notes:         req.Notes,
	}
	if err := s.Store.CreateResult(r.Context(), res); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "recording result failed", err))
		return
	}
	res.FullName = app.FullName
	res.Email = app.Email
	res.JobID = app.JobID

	if hiredOutcomes[strings.ToLower(req.Outcome)] {
		offer := &types.Offer{ApplicationID: app.ID, StartDate: time.Now().UTC()}
		if req.Offer != nil {
			if req.Offer.StartDate != nil {
				offer.StartDate = *req.Offer.StartDate
			}
			offer.Position = req.Offer.Position
			offer.Salary = req.Offer.Salary
			offer.Content = req.Offer.Content
		}
		if err := s.Store.CreateOffer(r.Context(), offer); err != nil {
			s.Logger.LogError(err, "Failed to extend offer for passing result", "application_id", app.ID)
		} else {
			s.Notifier.OfferExtended(r.Context(), app, offer)
		}
	}

	respondJSON(w, http.StatusCreated, res)
}

// listResultsHandler lists outcomes. ?mine=true scopes a recruiter to
// their own postings; ?job_id= and ?q= narrow further.
func (s *Server) listResultsHandler(w http.ResponseWriter, r *http.Request) {
	opts := store.ListResultsOptions{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("job_id"); raw != "" {
		jobID, err := parsePositiveInt(raw)
		if err != nil {
			s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job_id must be a positive integer", err))
			return
		}
		opts.JobID = &jobID
	}
	principal, _ := auth.PrincipalFrom(r.Context())
	if principal.Role == types.RoleRecruiter && r.URL.Query().Get("mine") == "true" {
		opts.PostedBy = &principal.ID
	}

	results, err := s.Store.ListResults(r.Context(), opts)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing results failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) getResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	res, err := s.Store.GetResultByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading result failed", err))
		return
	}
	if res == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Result not found"))
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type processRequest struct {
	Name   string `json:"name"`
	Stages []struct {
		Name  string `json:"name"`
		Order int    `json:"stage_order,omitempty"`
	} `json:"stages,omitempty"`
}

func (req *processRequest) stages() ([]types.Stage, *errors.AppError) {
	stages := make([]types.Stage, 0, len(req.Stages))
	for _, s := range req.Stages {
		if strings.TrimSpace(s.Name) == "" {
			return nil, errors.NewValidationError(errors.ErrCodeMissingField, "every stage needs a name", nil)
		}
		stages = append(stages, types.Stage{Name: s.Name, Order: s.Order})
	}
	return stages, nil
}

// createProcessHandler defines a hiring process with its ordered
// stages.
func (s *Server) createProcessHandler(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "name is required", nil))
		return
	}
	stages, appErr := req.stages()
	if appErr != nil {
		s.writeAppError(w, appErr)
		return
	}

	process := &types.Process{Name: req.Name, Stages: stages}
	if err := s.Store.CreateProcess(r.Context(), process); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating process failed", err))
		return
	}
	respondJSON(w, http.StatusCreated, process)
}

func (s *Server) listProcessesHandler(w http.ResponseWriter, r *http.Request) {
	processes, err := s.Store.ListProcesses(r.Context())
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing processes failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"processes": processes})
}

func (s *Server) getProcessHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	process, err := s.Store.GetProcessByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading process failed", err))
		return
	}
	if process == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Process not found"))
		return
	}
	respondJSON(w, http.StatusOK, process)
}

// updateProcessHandler renames a process and, when stages are given,
// replaces the stage list wholesale.
func (s *Server) updateProcessHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	var req struct {
		Name   *string `json:"name,omitempty"`
		Stages []struct {
			Name  string `json:"name"`
			Order int    `json:"stage_order,omitempty"`
		} `json:"stages,omitempty"`
	}
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}

	var stages []types.Stage
	if req.Stages != nil {
		stages = make([]types.Stage, 0, len(req.Stages))
		for _, st := range req.Stages {
			if strings.TrimSpace(st.Name) == "" {
				s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "every stage needs a name", nil))
				return
			}
			stages = append(stages, types.Stage{Name: st.Name, Order: st.Order})
		}
	}

	process, err := s.Store.UpdateProcess(r.Context(), id, req.Name, stages)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating process failed", err))
		return
	}
	if process == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Process not found"))
		return
	}
	respondJSON(w, http.StatusOK, process)
}

func (s *Server) deleteProcessHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := s.Store.DeleteProcess(r.Context(), id); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "deleting process failed", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

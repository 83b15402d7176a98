package server

import (
	"net/http"
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

// interviewStatuses are the recognized states of a scheduled interview.
var interviewStatuses = map[string]bool{
	"scheduled": true,
	"completed": true,
	"cancelled": true,
}

type interviewRequest struct {
	ApplicationID int64     `json:"application_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Location      string    `json:"location,omitempty"`
	Mode          string    `json:"mode,omitempty"`
}

// createInterviewHandler schedules an interview for an application and
// notifies the applicant.
func (s *Server) createInterviewHandler(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if req.ApplicationID <= 0 || req.ScheduledAt.IsZero() {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "application_id and scheduled_at are required", nil))
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

	iv := &types.Interview{
		ApplicationID: req.ApplicationID,
		ScheduledAt:   req.ScheduledAt,
		Location:      req.Location,
		Mode:          req.Mode,
	}
	if err := s.Store.CreateInterview(r.Context(), iv); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "scheduling interview failed", err))
		return
	}

	s.Notifier.InterviewScheduled(r.Context(), app, iv)

	s.Logger.Info("Interview scheduled", "interview_id", iv.ID, "application_id", app.ID)
	respondJSON(w, http.StatusCreated, iv)
}

func (s *Server) listInterviewsHandler(w http.ResponseWriter, r *http.Request) {
	interviews, err := s.Store.ListInterviews(r.Context())
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing interviews failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"interviews": interviews})
}

func (s *Server) getInterviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	iv, err := s.Store.GetInterviewByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading interview failed", err))
		return
	}
	if iv == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Interview not found"))
		return
	}
	respondJSON(w, http.StatusOK, iv)
}

func (s *Server) updateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	var req struct {
		ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
		Location    *string    `json:"location,omitempty"`
		Mode        *string    `json:"mode,omitempty"`
		Status      *string    `json:"status,omitempty"`
	}
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if req.Status != nil && !interviewStatuses[*req.Status] {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown interview status", nil))
		return
	}

	iv, err := s.Store.UpdateInterview(r.Context(), id, store.InterviewUpdate{
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
		Mode:        req.Mode,
		Status:      req.Status,
	})
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating interview failed", err))
		return
	}
	if iv == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Interview not found"))
		return
	}
	respondJSON(w, http.StatusOK, iv)
}

type offerRequest struct {
	ApplicationID int64     `json:"application_id"`
	StartDate     time.Time `json:"start_date"`
	Position      string    `json:"position,omitempty"`
	Salary        string    `json:"salary,omitempty"`
	Content       string    `json:"content,omitempty"`
}

// createOfferHandler extends an offer for an application and notifies
// the applicant.
func (s *Server) createOfferHandler(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if req.ApplicationID <= 0 || req.StartDate.IsZero() {
		s.writeAppError(w, errors.NewValidationError(errors.ErrCodeMissingField, "application_id and start_date are required", nil))
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

	offer := &types.Offer{
		ApplicationID: req.ApplicationID,
		StartDate:     req.StartDate,
		Position:      req.Position,
		Salary:        req.Salary,
		Content:       req.Content,
	}
	if err := s.Store.CreateOffer(r.Context(), offer); err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "creating offer failed", err))
		return
	}

	s.Notifier.OfferExtended(r.Context(), app, offer)

	s.Logger.Info("Offer extended", "offer_id", offer.ID, "application_id", app.ID)
	respondJSON(w, http.StatusCreated, offer)
}

func (s *Server) listOffersHandler(w http.ResponseWriter, r *http.Request) {
	offers, err := s.Store.ListOffers(r.Context())
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing offers failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"offers": offers})
}

func (s *Server) getOfferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	offer, err := s.Store.GetOfferByID(r.Context(), id)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading offer failed", err))
		return
	}
	if offer == nil {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Offer not found"))
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// listNotificationsHandler returns notifications, newest first. Admins
// see every user's notifications unless they ask for ?mine=true;
// everyone else only ever sees their own.
func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	var notifications []types.Notification
	var err error
	if principal.Role == types.RoleAdmin && r.URL.Query().Get("mine") != "true" {
		notifications, err = s.Store.ListNotifications(r.Context())
	} else {
		notifications, err = s.Store.ListNotificationsByUser(r.Context(), principal.ID)
	}
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "listing notifications failed", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// markNotificationReadHandler marks one of the caller's notifications
// as read. Another user's notification reads as not found, never as a
// hint that it exists.
func (s *Server) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	principal, _ := auth.PrincipalFrom(r.Context())
	updated, err := s.Store.MarkNotificationRead(r.Context(), id, principal.ID)
	if err != nil {
		s.writeAppError(w, errors.NewStorageError(errors.ErrCodeQueryFailed, "updating notification failed", err))
		return
	}
	if !updated {
		s.writeAppError(w, errors.NewNotFoundError(errors.ErrCodeNotFound, "Notification not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// Package notify fans recruitment events out to in-app notifications
// and email. Everything here is best-effort: a failed notification is
// logged and dropped, never surfaced to the API caller.
package notify

import (
	"context"
	"fmt"

	"hiretrack/internal/email"
	"hiretrack/internal/errors"
	"hiretrack/internal/store"
	"hiretrack/internal/types"
)

// Notifier writes notification rows and sends candidate email for
// pipeline events.
type Notifier struct {
	store  *store.Store
	sender email.Sender
	logger *errors.Logger

	// OnEmailResult, when set, is called with the outcome of every
	// delivery attempt. Used to feed delivery metrics.
	OnEmailResult func(success bool)
}

func NewNotifier(st *store.Store, sender email.Sender, logger *errors.Logger) *Notifier {
	return &Notifier{store: st, sender: sender, logger: logger}
}

// ApplicationReceived notifies a candidate that their application was
// recorded.
func (n *Notifier) ApplicationReceived(ctx context.Context, app *types.Application, job *types.Job) {
	subject := fmt.Sprintf("Application received: %s", job.Title)
	body := fmt.Sprintf("Hi %s,\n\nWe received your application for %s. We will be in touch as your application progresses.\n",
		app.FullName, job.Title)
	n.deliver(ctx, app, subject, body, "application", "application", app.ID)
}

// ApplicationStatusChanged notifies a candidate that their application
// moved to a new stage.
func (n *Notifier) ApplicationStatusChanged(ctx context.Context, app *types.Application, job *types.Job) {
	subject := fmt.Sprintf("Application update: %s", job.Title)
	body := fmt.Sprintf("Hi %s,\n\nYour application for %s is now %q.\n",
		app.FullName, job.Title, app.Status)
	n.deliver(ctx, app, subject, body, "status", "application", app.ID)
}

// ApplicationRejected notifies a candidate they were not selected,
// used when a closing job rejects its remaining applications.
func (n *Notifier) ApplicationRejected(ctx context.Context, app *types.Application, job *types.Job) {
	subject := "Application outcome"
	body := fmt.Sprintf("Hi %s,\n\nUnfortunately you were not selected for %s. Thank you for your interest.\n",
		app.FullName, job.Title)
	n.deliver(ctx, app, subject, body, "result", "application", app.ID)
}

// EvaluationRecorded notifies a candidate that their application was
// reviewed. The score stays internal, only the fact of review is
// shared.
func (n *Notifier) EvaluationRecorded(ctx context.Context, app *types.Application) {
	subject := "Your application has been reviewed"
	body := fmt.Sprintf("Hi %s,\n\nYour application has been reviewed by our team. We will be in touch about next steps.\n",
		app.FullName)
	n.deliver(ctx, app, subject, body, "evaluation", "application", app.ID)
}

// InterviewScheduled notifies a candidate about a scheduled interview.
func (n *Notifier) InterviewScheduled(ctx context.Context, app *types.Application, iv *types.Interview) {
	subject := "Interview scheduled"
	body := fmt.Sprintf("Hi %s,\n\nAn interview has been scheduled for %s.",
		app.FullName, iv.ScheduledAt.Format("Mon, 02 Jan 2006 15:04 MST"))
	if iv.Location != "" {
		body += fmt.Sprintf(" Location: %s.", iv.Location)
	}
	if iv.Mode != "" {
		body += fmt.Sprintf(" Format: %s.", iv.Mode)
	}
	body += "\n"
	n.deliver(ctx, app, subject, body, "interview", "interview", iv.ID)
}

// OfferExtended notifies a candidate that an offer was extended.
func (n *Notifier) OfferExtended(ctx context.Context, app *types.Application, offer *types.Offer) {
	subject := "You have an offer"
	body := fmt.Sprintf("Hi %s,\n\nCongratulations, an offer has been extended for your application. Start date: %s.\n",
		app.FullName, offer.StartDate.Format("2006-01-02"))
	n.deliver(ctx, app, subject, body, "offer", "offer", offer.ID)
}

// deliver writes an in-app notification when the applicant has a user
// account, then sends email. Applications are linked to accounts by
// case-insensitive email match only.
func (n *Notifier) deliver(ctx context.Context, app *types.Application, subject, body, kind, relatedType string, relatedID int64) {
	if userID, ok, err := n.store.FindUserIDByEmail(ctx, app.Email); err != nil {
		n.logger.LogError(err, "Failed to resolve notification recipient", "email", app.Email)
	} else if ok {
		notification := &types.Notification{
			UserID:      userID,
			Title:       subject,
			Message:     body,
			Type:        kind,
			RelatedType: relatedType,
			RelatedID:   &relatedID,
		}
		if err := n.store.CreateNotification(ctx, notification); err != nil {
			n.logger.LogError(err, "Failed to store notification", "user_id", userID)
		}
	}

	err := n.sender.Send(ctx, app.Email, subject, body)
	if err != nil {
		n.logger.LogError(err, "Failed to send notification email", "recipient", app.Email)
	}
	if n.OnEmailResult != nil {
		n.OnEmailResult(err == nil)
	}
}

package screening

import (
	"context"
	"encoding/json"
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/errors"
	"hiretrack/internal/types"
)

// Store is the storage collaborator the reporter reads from. The
// screening path performs no writes and is safe to repeat at any point.
type Store interface {
	GetJobByID(ctx context.Context, id int64) (*types.Job, error)
	ListApplicationsByJob(ctx context.Context, jobID int64) ([]types.Application, error)
	FindUserIDByEmail(ctx context.Context, email string) (int64, bool, error)
	GetProfileScores(ctx context.Context, userID int64) (json.RawMessage, error)
}

// ReportJob is the job header echoed back with a screening report.
type ReportJob struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Requirements json.RawMessage `json:"requirements"`
}

// ReportEntry is one ranked applicant. Raw scores are included so
// clients can recompute or audit the verdict.
type ReportEntry struct {
	ApplicationID int64     `json:"application_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	Percent       int       `json:"percent"`
	Scores        Snapshot  `json:"scores"`
	CreatedAt     time.Time `json:"created_at"`
}

// Report is the ranked screening result for all applicants of one job.
// Ephemeral, response-only.
type Report struct {
	Job     ReportJob     `json:"job"`
	Results []ReportEntry `json:"results"`
}

// Reporter authorizes a screening request, loads its inputs from the
// store, evaluates every applicant, and ranks the verdicts.
type Reporter struct {
	store Store
}

// NewReporter builds a reporter on the given storage collaborator.
func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// BuildReport produces the screening report for one job.
//
// A recruiter may only screen jobs they posted; admins bypass the
// ownership check; no other role may screen. A missing score snapshot
// degrades that applicant's verdict to worst case instead of removing
// them from the report.
func (r *Reporter) BuildReport(ctx context.Context, jobID int64, caller auth.Principal) (*Report, error) {
	job, err := r.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading job failed", err).
			WithContext("job_id", jobID)
	}
	if job == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found")
	}

	switch caller.Role {
	case types.RoleAdmin:
		// unrestricted
	case types.RoleRecruiter:
		if job.PostedBy == nil || *job.PostedBy != caller.ID {
			return nil, errors.NewForbiddenError(errors.ErrCodeNotOwner, "Forbidden")
		}
	default:
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden, "Forbidden")
	}

	requirements := ParseRequirements(job.Requirements)

	apps, err := r.store.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading applications failed", err).
			WithContext("job_id", jobID)
	}

	entries := make([]ReportEntry, 0, len(apps))
	for _, app := range apps {
		snap, err := r.lookupSnapshot(ctx, app.Email)
		if err != nil {
			return nil, err
		}
		verdict := Evaluate(requirements, snap)
		entries = append(entries, ReportEntry{
			ApplicationID: app.ID,
			FullName:      app.FullName,
			Email:         app.Email,
			Status:        verdict.Status,
			Percent:       verdict.Percent,
			Scores:        snap,
			CreatedAt:     app.CreatedAt,
		})
	}

	Rank(entries)

	return &Report{
		Job: ReportJob{
			ID:           job.ID,
			Title:        job.Title,
			Requirements: job.Requirements,
		},
		Results: entries,
	}, nil
}

// lookupSnapshot resolves an applicant's score snapshot via the
// case-insensitive email join to user accounts. No matching account or
// no stored profile degrades to the empty snapshot, never an error.
func (r *Reporter) lookupSnapshot(ctx context.Context, email string) (Snapshot, error) {
	userID, found, err := r.store.FindUserIDByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeQueryFailed, "resolving applicant account failed", err)
	}
	if !found {
		return Snapshot{}, nil
	}
	scores, err := r.store.GetProfileScores(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeQueryFailed, "loading profile scores failed", err)
	}
	return ParseSnapshot(scores), nil
}

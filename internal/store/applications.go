package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/types"
)

const applicationColumns = "a.id, a.job_id, a.full_name, a.email, a.phone, a.resume_url, a.cover_letter, a.status, a.created_at, a.updated_at"

func scanApplication(row interface{ Scan(...any) error }) (*types.Application, error) {
	var a types.Application
	var phone, resumeURL, coverLetter sql.NullString
	err := row.Scan(&a.ID, &a.JobID, &a.FullName, &a.Email, &phone, &resumeURL,
		&coverLetter, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Phone = phone.String
	a.ResumeURL = resumeURL.String
	a.CoverLetter = coverLetter.String
	return &a, nil
}

// CreateApplication inserts an application and fills in its generated
// id and timestamps.
func (s *Store) CreateApplication(ctx context.Context, a *types.Application) error {
	ts := now()
	if a.Status == "" {
		a.Status = "submitted"
	}
	a.CreatedAt, a.UpdatedAt = ts, ts
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO applications (job_id, full_name, email, phone, resume_url, cover_letter, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`),
		a.JobID, a.FullName, a.Email, nullStr(a.Phone), nullStr(a.ResumeURL),
		nullStr(a.CoverLetter), a.Status, ts, ts,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}

// GetApplicationByID returns the application, or nil when the id does
// not resolve.
func (s *Store) GetApplicationByID(ctx context.Context, id int64) (*types.Application, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+applicationColumns+` FROM applications a WHERE a.id=$1`), id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}
	return a, nil
}

// ListApplicationsByJob returns every application for one job, oldest
// first. Screening iterates this without pagination; volume is bounded
// by the job's applicant count.
func (s *Store) ListApplicationsByJob(ctx context.Context, jobID int64) ([]types.Application, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+applicationColumns+` FROM applications a WHERE a.job_id=$1 ORDER BY a.created_at ASC`), jobID)
	if err != nil {
		return nil, fmt.Errorf("listing applications by job: %w", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ListApplicationsOptions narrows an application listing.
type ListApplicationsOptions struct {
	JobID    *int64
	Query    string // substring match on applicant name/email
	Email    string // restrict to a candidate's own applications
	PostedBy *int64 // restrict to applications for jobs owned by this user
}

// ListApplications returns applications newest first, joined against
// jobs when recruiter scoping applies.
func (s *Store) ListApplications(ctx context.Context, opts ListApplicationsOptions) ([]types.Application, error) {
	sqlText := `SELECT ` + applicationColumns + ` FROM applications a`
	if opts.PostedBy != nil {
		sqlText += ` JOIN jobs j ON j.id=a.job_id`
	}

	var where []string
	var args []any
	if opts.PostedBy != nil {
		args = append(args, *opts.PostedBy)
		where = append(where, fmt.Sprintf("j.posted_by=$%d", len(args)))
	}
	if opts.Email != "" {
		args = append(args, opts.Email)
		where = append(where, fmt.Sprintf("lower(a.email)=lower($%d)", len(args)))
	}
	if opts.JobID != nil {
		args = append(args, *opts.JobID)
		where = append(where, fmt.Sprintf("a.job_id=$%d", len(args)))
	}
	if opts.Query != "" {
		args = append(args, "%"+strings.ToLower(opts.Query)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(lower(a.full_name) LIKE $%d OR lower(a.email) LIKE $%d)", n, n))
	}
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += ` ORDER BY a.created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlText), args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]types.Application, error) {
	var apps []types.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplicationStatus sets an application's pipeline status and
// returns the updated row, or nil when the id does not resolve.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status string) (*types.Application, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`UPDATE applications SET status=$1, updated_at=$2 WHERE id=$3
		 RETURNING id, job_id, full_name, email, phone, resume_url, cover_letter, status, created_at, updated_at`),
		status, now(), id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating application status: %w", err)
	}
	return a, nil
}

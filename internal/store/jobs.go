package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/types"
)

const jobColumns = "id, title, slug, description, department, location, posted_by, requirements, status, created_at, updated_at"

func scanJob(row interface{ Scan(...any) error }) (*types.Job, error) {
	var j types.Job
	var department, location, requirements sql.NullString
	var postedBy sql.NullInt64
	err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.Description, &department, &location,
		&postedBy, &requirements, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Department = department.String
	j.Location = location.String
	if postedBy.Valid {
		j.PostedBy = &postedBy.Int64
	}
	if requirements.Valid {
		j.Requirements = json.RawMessage(requirements.String)
	}
	return &j, nil
}

// CreateJob inserts a job posting and fills in its generated id and
// timestamps.
func (s *Store) CreateJob(ctx context.Context, j *types.Job) error {
	ts := now()
	if j.Status == "" {
		j.Status = "open"
	}
	j.CreatedAt, j.UpdatedAt = ts, ts
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO jobs (title, slug, description, department, location, posted_by, requirements, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`),
		j.Title, j.Slug, j.Description, nullStr(j.Department), nullStr(j.Location),
		nullInt(j.PostedBy), nullJSON(j.Requirements), j.Status, ts, ts,
	).Scan(&j.ID)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// GetJobByID returns the job, or nil when the id does not resolve.
func (s *Store) GetJobByID(ctx context.Context, id int64) (*types.Job, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+jobColumns+` FROM jobs WHERE id=$1`), id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}
	return j, nil
}

// ListJobsOptions narrows a job listing.
type ListJobsOptions struct {
	Query    string // substring match on title, department, location
	PostedBy *int64 // restrict to jobs owned by this user
}

// ListJobs returns jobs newest first.
func (s *Store) ListJobs(ctx context.Context, opts ListJobsOptions) ([]types.Job, error) {
	sqlText := `SELECT ` + jobColumns + ` FROM jobs`
	var where []string
	var args []any
	if opts.PostedBy != nil {
		args = append(args, *opts.PostedBy)
		where = append(where, fmt.Sprintf("posted_by=$%d", len(args)))
	}
	if opts.Query != "" {
		args = append(args, "%"+strings.ToLower(opts.Query)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(lower(title) LIKE $%d OR lower(department) LIKE $%d OR lower(location) LIKE $%d)", n, n, n))
	}
	if len(where) > 0 {
		sqlText += " WHERE " + strings.Join(where, " AND ")
	}
	sqlText += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlText), args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// JobUpdate holds the fields an update may change; nil means "leave
// unchanged".
type JobUpdate struct {
	Title        *string
	Description  *string
	Department   *string
	Location     *string
	Requirements json.RawMessage
	Status       *string
}

// UpdateJob applies the non-nil fields and returns the updated row, or
// nil when the id does not resolve.
func (s *Store) UpdateJob(ctx context.Context, id int64, upd JobUpdate) (*types.Job, error) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Department != nil {
		add("department", nullStr(*upd.Department))
	}
	if upd.Location != nil {
		add("location", nullStr(*upd.Location))
	}
	if upd.Requirements != nil {
		add("requirements", nullJSON(upd.Requirements))
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if len(set) == 0 {
		return s.GetJobByID(ctx, id)
	}
	add("updated_at", now())
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`UPDATE jobs SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(set, ", "), len(args), jobColumns)), args...)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating job: %w", err)
	}
	return j, nil
}

// DeleteJob removes a job and, via cascade, its applications.
func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM jobs WHERE id=$1`), id); err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiretrack/internal/types"
)

const interviewColumns = "id, application_id, scheduled_at, location, mode, status, created_at, updated_at"

func scanInterview(row interface{ Scan(...any) error }) (*types.Interview, error) {
	var iv types.Interview
	var location, mode sql.NullString
	err := row.Scan(&iv.ID, &iv.ApplicationID, &iv.ScheduledAt, &location, &mode,
		&iv.Status, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	iv.Location = location.String
	iv.Mode = mode.String
	return &iv, nil
}

// CreateInterview schedules an interview and fills in its generated id
// and timestamps.
func (s *Store) CreateInterview(ctx context.Context, iv *types.Interview) error {
	ts := now()
	if iv.Status == "" {
		iv.Status = "scheduled"
	}
	iv.CreatedAt, iv.UpdatedAt = ts, ts
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO interviews (application_id, scheduled_at, location, mode, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`),
		iv.ApplicationID, iv.ScheduledAt, nullStr(iv.Location), nullStr(iv.Mode), iv.Status, ts, ts,
	).Scan(&iv.ID)
	if err != nil {
		return fmt.Errorf("inserting interview: %w", err)
	}
	return nil
}

// ListInterviews returns interviews, most recently scheduled first.
func (s *Store) ListInterviews(ctx context.Context) ([]types.Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews ORDER BY scheduled_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing interviews: %w", err)
	}
	defer rows.Close()

	var interviews []types.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning interview: %w", err)
		}
		interviews = append(interviews, *iv)
	}
	return interviews, rows.Err()
}

// GetInterviewByID returns the interview, or nil when the id does not
// resolve.
func (s *Store) GetInterviewByID(ctx context.Context, id int64) (*types.Interview, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+interviewColumns+` FROM interviews WHERE id=$1`), id)
	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying interview: %w", err)
	}
	return iv, nil
}

// InterviewUpdate holds the fields an update may change; nil means
// "leave unchanged".
type InterviewUpdate struct {
	ScheduledAt *time.Time
	Location    *string
	Mode        *string
	Status      *string
}

// UpdateInterview applies the non-nil fields and returns the updated
// row, or nil when the id does not resolve.
func (s *Store) UpdateInterview(ctx context.Context, id int64, upd InterviewUpdate) (*types.Interview, error) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.ScheduledAt != nil {
		add("scheduled_at", *upd.ScheduledAt)
	}
	if upd.Location != nil {
		add("location", nullStr(*upd.Location))
	}
	if upd.Mode != nil {
		add("mode", nullStr(*upd.Mode))
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if len(set) == 0 {
		return s.GetInterviewByID(ctx, id)
	}
	add("updated_at", now())
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`UPDATE interviews SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(set, ", "), len(args), interviewColumns)), args...)
	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating interview: %w", err)
	}
	return iv, nil
}

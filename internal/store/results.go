package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/types"
)

const resultColumns = `r.id, r.application_id, r.result, r.notes, r.created_at,
	a.full_name, a.email, a.job_id, j.title`

func scanResult(row interface{ Scan(...any) error }) (*types.Result, error) {
	var res types.Result
	var notes sql.NullString
	err := row.Scan(&res.ID, &res.ApplicationID, &res.Outcome, &notes, &res.CreatedAt,
		&res.FullName, &res.Email, &res.JobID, &res.JobTitle)
	if err != nil {
		return nil, err
	}
	res.Notes = notes.String
	return &res, nil
}

// CreateResult records the final outcome for an application and fills
// in its generated id and creation timestamp.
func (s *Store) CreateResult(ctx context.Context, res *types.Result) error {
	res.CreatedAt = now()
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO results (application_id, result, notes, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`),
		res.ApplicationID, res.Outcome, nullStr(res.Notes), res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	return nil
}

// ListResultsOptions narrows a result listing.
type ListResultsOptions struct {
	JobID    *int64
	Query    string // substring match on applicant name/email
	PostedBy *int64 // restrict to results for jobs owned by this user
}

// ListResults returns outcomes newest first, joined against the
// application and job they belong to.
func (s *Store) ListResults(ctx context.Context, opts ListResultsOptions) ([]types.Result, error) {
	sqlText := `SELECT ` + resultColumns + ` FROM results r
		JOIN applications a ON a.id=r.application_id
		JOIN jobs j ON j.id=a.job_id`

	var where []string
	var args []any
	if opts.PostedBy != nil {
		args = append(args, *opts.PostedBy)
		where = append(where, fmt.Sprintf("j.posted_by=$%d", len(args)))
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
	sqlText += ` ORDER BY r.created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlText), args...)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var results []types.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// GetResultByID returns the outcome, or nil when the id does not
// resolve.
func (s *Store) GetResultByID(ctx context.Context, id int64) (*types.Result, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+resultColumns+` FROM results r
		 JOIN applications a ON a.id=r.application_id
		 JOIN jobs j ON j.id=a.job_id
		 WHERE r.id=$1`), id)
	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying result: %w", err)
	}
	return res, nil
}

// HasResultForApplication reports whether an outcome is already
// recorded for the application.
func (s *Store) HasResultForApplication(ctx context.Context, applicationID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT 1 FROM results WHERE application_id=$1 LIMIT 1`), applicationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying result: %w", err)
	}
	return true, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hiretrack/internal/types"
)

func scanProfile(row interface{ Scan(...any) error }) (*types.Profile, error) {
	var p types.Profile
	var scores, extra sql.NullString
	err := row.Scan(&p.UserID, &scores, &extra, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if scores.Valid {
		p.Scores = json.RawMessage(scores.String)
	}
	if extra.Valid {
		p.Extra = json.RawMessage(extra.String)
	}
	return &p, nil
}

// GetProfile returns a candidate's profile, or nil when none has been
// created yet.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*types.Profile, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT user_id, scores, extra, created_at, updated_at FROM candidate_profiles WHERE user_id=$1`), userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// UpsertProfile replaces a candidate's stored scores and extra data,
// creating the profile on first write.
func (s *Store) UpsertProfile(ctx context.Context, userID int64, scores, extra json.RawMessage) (*types.Profile, error) {
	ts := now()
	row := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO candidate_profiles (user_id, scores, extra, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET scores=excluded.scores, extra=excluded.extra, updated_at=excluded.updated_at
		 RETURNING user_id, scores, extra, created_at, updated_at`),
		userID, nullJSON(scores), nullJSON(extra), ts, ts)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}
	return p, nil
}

// FindUserIDByEmail resolves a user account by case-insensitive email
// match. The boolean reports whether a matching account exists.
func (s *Store) FindUserIDByEmail(ctx context.Context, email string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM users WHERE lower(email)=lower($1)`), email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving user by email: %w", err)
	}
	return id, true, nil
}

// GetProfileScores returns the raw stored scores document for a user,
// or nil when the user never created a profile.
func (s *Store) GetProfileScores(ctx context.Context, userID int64) (json.RawMessage, error) {
	var scores sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT scores FROM candidate_profiles WHERE user_id=$1`), userID).Scan(&scores)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile scores: %w", err)
	}
	if !scores.Valid {
		return nil, nil
	}
	return json.RawMessage(scores.String), nil
}

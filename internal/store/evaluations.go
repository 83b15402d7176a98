package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hiretrack/internal/types"
)

const evaluationColumns = "id, application_id, stage_id, score, comments, created_at"

func scanEvaluation(row interface{ Scan(...any) error }) (*types.Evaluation, error) {
	var e types.Evaluation
	var stageID sql.NullInt64
	var comments sql.NullString
	err := row.Scan(&e.ID, &e.ApplicationID, &stageID, &e.Score, &comments, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if stageID.Valid {
		e.StageID = &stageID.Int64
	}
	e.Comments = comments.String
	return &e, nil
}

// CreateEvaluation inserts a manual evaluation and fills in its
// generated id and timestamp.
func (s *Store) CreateEvaluation(ctx context.Context, e *types.Evaluation) error {
	e.CreatedAt = now()
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO evaluations (application_id, stage_id, score, comments, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`),
		e.ApplicationID, nullInt(e.StageID), e.Score, nullStr(e.Comments), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("inserting evaluation: %w", err)
	}
	return nil
}

// ListEvaluations returns evaluations newest first.
func (s *Store) ListEvaluations(ctx context.Context) ([]types.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	defer rows.Close()

	var evals []types.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning evaluation: %w", err)
		}
		evals = append(evals, *e)
	}
	return evals, rows.Err()
}

// GetEvaluationByID returns the evaluation, or nil when the id does not
// resolve.
func (s *Store) GetEvaluationByID(ctx context.Context, id int64) (*types.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id=$1`), id)
	e, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying evaluation: %w", err)
	}
	return e, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/types"
)

const criterionColumns = "id, key, label, min, max, step, active"

func scanCriterion(row interface{ Scan(...any) error }) (*types.CriterionDef, error) {
	var c types.CriterionDef
	err := row.Scan(&c.ID, &c.Key, &c.Label, &c.Min, &c.Max, &c.Step, &c.Active)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCriterion adds a definition to the shared catalog and fills in
// its generated id.
func (s *Store) CreateCriterion(ctx context.Context, c *types.CriterionDef) error {
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO evaluation_criteria (key, label, min, max, step, active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`),
		c.Key, c.Label, c.Min, c.Max, c.Step, c.Active,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("inserting criterion: %w", err)
	}
	return nil
}

// ListCriteria returns catalog definitions in key order. When
// activeOnly is set, disabled definitions are filtered out.
func (s *Store) ListCriteria(ctx context.Context, activeOnly bool) ([]types.CriterionDef, error) {
	query := `SELECT ` + criterionColumns + ` FROM evaluation_criteria`
	if activeOnly {
		query += ` WHERE active=TRUE`
	}
	query += ` ORDER BY key ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing criteria: %w", err)
	}
	defer rows.Close()

	var criteria []types.CriterionDef
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning criterion: %w", err)
		}
		criteria = append(criteria, *c)
	}
	return criteria, rows.Err()
}

// CriterionUpdate holds the fields an update may change; nil means
// "leave unchanged".
type CriterionUpdate struct {
	Label  *string
	Min    *float64
	Max    *float64
	Step   *float64
	Active *bool
}

// UpdateCriterion applies the non-nil fields and returns the updated
// definition, or nil when the id does not resolve.
func (s *Store) UpdateCriterion(ctx context.Context, id int64, upd CriterionUpdate) (*types.CriterionDef, error) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.Label != nil {
		add("label", *upd.Label)
	}
	if upd.Min != nil {
		add("min", *upd.Min)
	}
	if upd.Max != nil {
		add("max", *upd.Max)
	}
	if upd.Step != nil {
		add("step", *upd.Step)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	if len(set) == 0 {
		row := s.db.QueryRowContext(ctx, s.rebind(
			`SELECT `+criterionColumns+` FROM evaluation_criteria WHERE id=$1`), id)
		c, err := scanCriterion(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("querying criterion: %w", err)
		}
		return c, nil
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`UPDATE evaluation_criteria SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(set, ", "), len(args), criterionColumns)), args...)
	c, err := scanCriterion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating criterion: %w", err)
	}
	return c, nil
}

// DeleteCriterion removes a catalog definition. It reports whether a
// row was deleted.
func (s *Store) DeleteCriterion(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM evaluation_criteria WHERE id=$1`), id)
	if err != nil {
		return false, fmt.Errorf("deleting criterion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting criterion: %w", err)
	}
	return affected > 0, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hiretrack/internal/types"
)

func scanProcess(row interface{ Scan(...any) error }) (*types.Process, error) {
	var p types.Process
	err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProcess stores a hiring process with its stages in one
// transaction. Stage ids and the process id are filled in.
func (s *Store) CreateProcess(ctx context.Context, p *types.Process) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	err = tx.QueryRowContext(ctx, s.rebind(
		`INSERT INTO processes (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`),
		p.Name, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("inserting process: %w", err)
	}

	if err := s.insertStages(ctx, tx, p.ID, p.Stages); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) insertStages(ctx context.Context, tx *sql.Tx, processID int64, stages []types.Stage) error {
	for i := range stages {
		st := &stages[i]
		st.ProcessID = processID
		if st.Order == 0 {
			st.Order = i + 1
		}
		err := tx.QueryRowContext(ctx, s.rebind(
			`INSERT INTO stages (process_id, name, stage_order) VALUES ($1, $2, $3) RETURNING id`),
			processID, st.Name, st.Order,
		).Scan(&st.ID)
		if err != nil {
			return fmt.Errorf("inserting stage: %w", err)
		}
	}
	return nil
}

// ListProcesses returns processes newest first, without their stages.
func (s *Store) ListProcesses(ctx context.Context) ([]types.Process, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM processes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	defer rows.Close()

	var processes []types.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning process: %w", err)
		}
		processes = append(processes, *p)
	}
	return processes, rows.Err()
}

// GetProcessByID returns the process with its stages in order, or nil
// when the id does not resolve.
func (s *Store) GetProcessByID(ctx context.Context, id int64) (*types.Process, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, created_at, updated_at FROM processes WHERE id=$1`), id)
	p, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying process: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, process_id, name, stage_order FROM stages WHERE process_id=$1 ORDER BY stage_order`), id)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st types.Stage
		if err := rows.Scan(&st.ID, &st.ProcessID, &st.Name, &st.Order); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		p.Stages = append(p.Stages, st)
	}
	return p, rows.Err()
}

// UpdateProcess renames a process and, when stages is non-nil, replaces
// its stage list wholesale. Returns the updated process with stages, or
// nil when the id does not resolve.
func (s *Store) UpdateProcess(ctx context.Context, id int64, name *string, stages []types.Stage) (*types.Process, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(
		`UPDATE processes SET name=COALESCE($1, name), updated_at=$2 WHERE id=$3`),
		nullStr(deref(name)), now(), id)
	if err != nil {
		return nil, fmt.Errorf("updating process: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating process: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	if stages != nil {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM stages WHERE process_id=$1`), id); err != nil {
			return nil, fmt.Errorf("clearing stages: %w", err)
		}
		if err := s.insertStages(ctx, tx, id, stages); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing process update: %w", err)
	}
	return s.GetProcessByID(ctx, id)
}

// DeleteProcess removes a process; its stages go with it.
func (s *Store) DeleteProcess(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Explicit stage delete keeps SQLite deployments without
	// foreign_keys pragma consistent.
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM stages WHERE process_id=$1`), id); err != nil {
		return fmt.Errorf("deleting stages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM processes WHERE id=$1`), id); err != nil {
		return fmt.Errorf("deleting process: %w", err)
	}
	return tx.Commit()
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

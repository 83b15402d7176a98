package store

import (
	"context"
	"fmt"
)

// Schema statements per dialect. Kept as individual statements because
// the pgx stdlib driver rejects multi-statement Exec calls.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		role TEXT NOT NULL DEFAULT 'candidate',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL,
		department TEXT,
		location TEXT,
		posted_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		requirements JSONB,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id BIGSERIAL PRIMARY KEY,
		job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		resume_url TEXT,
		cover_letter TEXT,
		status TEXT NOT NULL DEFAULT 'submitted',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidate_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		scores JSONB,
		extra JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id BIGSERIAL PRIMARY KEY,
		process_id BIGINT NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		stage_order INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evaluations (
		id BIGSERIAL PRIMARY KEY,
		application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		stage_id BIGINT REFERENCES stages(id) ON DELETE SET NULL,
		score DOUBLE PRECISION NOT NULL,
		comments TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		id BIGSERIAL PRIMARY KEY,
		application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		result TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interviews (
		id BIGSERIAL PRIMARY KEY,
		application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		scheduled_at TIMESTAMPTZ NOT NULL,
		location TEXT,
		mode TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id BIGSERIAL PRIMARY KEY,
		application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		start_date TIMESTAMPTZ NOT NULL,
		"position" TEXT,
		salary TEXT,
		content TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT,
		type TEXT,
		related_type TEXT,
		related_id BIGINT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evaluation_criteria (
		id BIGSERIAL PRIMARY KEY,
		key TEXT UNIQUE NOT NULL,
		label TEXT NOT NULL,
		min DOUBLE PRECISION NOT NULL DEFAULT 0,
		max DOUBLE PRECISION NOT NULL DEFAULT 100,
		step DOUBLE PRECISION NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job_id ON applications(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_results_application_id ON results(application_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stages_process_id ON stages(process_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		role TEXT NOT NULL DEFAULT 'candidate',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL,
		department TEXT,
		location TEXT,
		posted_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		requirements TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		resume_url TEXT,
		cover_letter TEXT,
		status TEXT NOT NULL DEFAULT 'submitted',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidate_profiles (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		scores TEXT,
		extra TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		process_id INTEGER NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		stage_order INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		stage_id INTEGER REFERENCES stages(id) ON DELETE SET NULL,
		score REAL NOT NULL,
		comments TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		result TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		scheduled_at TIMESTAMP NOT NULL,
		location TEXT,
		mode TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		start_date TIMESTAMP NOT NULL,
		"position" TEXT,
		salary TEXT,
		content TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT,
		type TEXT,
		related_type TEXT,
		related_id INTEGER,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evaluation_criteria (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT UNIQUE NOT NULL,
		label TEXT NOT NULL,
		min REAL NOT NULL DEFAULT 0,
		max REAL NOT NULL DEFAULT 100,
		step REAL NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job_id ON applications(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_results_application_id ON results(application_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stages_process_id ON stages(process_id)`,
}

// Migrate applies the schema for the store's dialect. Statements are
// idempotent, so running migrate repeatedly is safe.
func (s *Store) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.driver == DriverSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

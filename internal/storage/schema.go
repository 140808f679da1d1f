package storage

import (
	"context"
	"fmt"
)

// gen_random_uuid is built in from PostgreSQL 13.
var schema = []string{
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`, usersTable),
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title       TEXT NOT NULL,
		description TEXT,
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed')),
		priority    TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		due_date    TIMESTAMPTZ,
		created_by  UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
		assigned_to UUID REFERENCES %s(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`, tasksTable, usersTable, usersTable),
	fmt.Sprintf(`CREATE INDEX IF NOT EXISTS tasks_created_by_idx ON %s(created_by);`, tasksTable),
	fmt.Sprintf(`CREATE INDEX IF NOT EXISTS tasks_assigned_to_idx ON %s(assigned_to);`, tasksTable),
}

// Migrate creates the tables if they do not exist yet.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	const op = "storage.Migrate"

	for _, stmt := range schema {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		seq               BIGSERIAL,
		id                TEXT PRIMARY KEY,
		project_code      TEXT NOT NULL,
		type              TEXT NOT NULL,
		document_no       TEXT NOT NULL,
		title             TEXT NOT NULL,
		contract_date     DATE NOT NULL,
		status            TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		created_by        TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		current_revision  INTEGER NOT NULL DEFAULT 0,
		approval_override TEXT NOT NULL DEFAULT '',
		UNIQUE (project_code, document_no)
	)`,
	`CREATE TABLE IF NOT EXISTS document_revisions (
		document_id TEXT NOT NULL REFERENCES documents (id),
		revision_no INTEGER NOT NULL CHECK (revision_no >= 1),
		uploaded_at TIMESTAMPTZ NOT NULL,
		uploaded_by TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		file_path   TEXT NOT NULL,
		PRIMARY KEY (document_id, revision_no)
	)`,
	`CREATE TABLE IF NOT EXISTS document_remarks (
		id          TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents (id),
		seq         INTEGER NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		created_by  TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		revision_no INTEGER NOT NULL DEFAULT 0,
		UNIQUE (document_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS document_remarks_role_idx
		ON document_remarks (document_id, role, created_at)`,
	`CREATE INDEX IF NOT EXISTS documents_seq_idx ON documents (seq)`,
}

// Migrate applies the register schema in one transaction. Statements are
// idempotent so it is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Schema is applied by EnsureSchema. Attachments reference their document
// with ON DELETE CASCADE, but the repository also deletes them explicitly.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	author TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK (status IN ('SAVED','SUBMITTED','APPROVED','REJECTED')),
	submission_date TIMESTAMPTZ,
	review_date TIMESTAMPTZ,
	document_receiver TEXT,
	rejection_reason TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_author ON documents(author);
CREATE INDEX IF NOT EXISTS idx_documents_doc_type_status ON documents(doc_type, status);

CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	position INT NOT NULL,
	file_name TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	data BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_document ON attachments(document_id);

CREATE TABLE IF NOT EXISTS roles (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS operations (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS role_operations (
	role_name TEXT NOT NULL REFERENCES roles(name) ON DELETE CASCADE,
	operation_name TEXT NOT NULL REFERENCES operations(name) ON DELETE CASCADE,
	position INT NOT NULL,
	PRIMARY KEY (role_name, operation_name)
);`

// EnsureSchema creates the tables if needed.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

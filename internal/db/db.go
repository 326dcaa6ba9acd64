package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL-backed store.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Schema is the persisted layout: a jobs table keyed by identity, an
// applications table keyed by identity with embedded history, and the
// append-only action-event log.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
    identity      TEXT PRIMARY KEY,
    url           TEXT,
    title         TEXT NOT NULL,
    company       TEXT NOT NULL,
    location      TEXT,
    remote        BOOLEAN NOT NULL DEFAULT FALSE,
    platform      TEXT,
    description   TEXT,
    posted_at     TIMESTAMPTZ,
    discovered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS applications (
    id             UUID PRIMARY KEY,
    identity       TEXT NOT NULL UNIQUE REFERENCES jobs(identity),
    company        TEXT NOT NULL,
    role           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'discovered',
    history        JSONB NOT NULL DEFAULT '[]',
    resume_variant TEXT,
    match_score    DOUBLE PRECISION,
    ats_score      DOUBLE PRECISION,
    retry_counts   JSONB NOT NULL DEFAULT '{}',
    version        BIGINT NOT NULL DEFAULT 1,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS action_events (
    id          BIGSERIAL PRIMARY KEY,
    category    TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company);
CREATE INDEX IF NOT EXISTS idx_action_events_category_at ON action_events(category, occurred_at);
`

// Migrate creates the tables if they do not exist.
func (db *Postgres) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-agent/internal/types"
)

// PutJob inserts a job record, no-oping when the identity already exists.
// Job records are immutable once stored: ON CONFLICT DO NOTHING rather than
// upsert, and the stored row wins.
func (db *Postgres) PutJob(ctx context.Context, job types.JobRecord) (*types.JobRecord, error) {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (identity, url, title, company, location, remote, platform, description, posted_at, discovered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (identity) DO NOTHING`,
		job.Identity, job.URL, job.Title, job.Company, job.Location, job.Remote,
		job.Platform, job.Description, job.PostedAt, job.DiscoveredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to put job: %w", err)
	}

	stored, err := db.GetJobByIdentity(ctx, job.Identity)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("job %s not found after put", job.Identity)
	}
	return stored, nil
}

// GetJobByIdentity retrieves a job record by identity.
func (db *Postgres) GetJobByIdentity(ctx context.Context, id types.Identity) (*types.JobRecord, error) {
	var j types.JobRecord
	err := db.pool.QueryRow(ctx,
		`SELECT identity, url, title, company, location, remote, platform, description, posted_at, discovered_at
		 FROM jobs WHERE identity = $1`,
		id,
	).Scan(&j.Identity, &j.URL, &j.Title, &j.Company, &j.Location, &j.Remote,
		&j.Platform, &j.Description, &j.PostedAt, &j.DiscoveredAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

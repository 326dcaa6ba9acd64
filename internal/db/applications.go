package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-agent/internal/types"
)

// CreateApplication stores a new application record. Exactly one application
// may exist per identity: on conflict the existing record is returned with a
// *DuplicateIdentityError so the caller can proceed idempotently.
func (db *Postgres) CreateApplication(ctx context.Context, app *types.ApplicationRecord) (*types.ApplicationRecord, error) {
	historyJSON, err := json.Marshal(app.History)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	retriesJSON, err := json.Marshal(app.RetryCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal retry counts: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO applications (id, identity, company, role, status, history,
		                           resume_variant, match_score, ats_score, retry_counts,
		                           version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
		 ON CONFLICT (identity) DO NOTHING`,
		app.ID, app.Identity, app.Company, app.Role, app.Status, historyJSON,
		nullIfEmpty(app.ResumeVariant), app.MatchScore, app.ATSScore, retriesJSON,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	existing, err := db.GetApplication(ctx, app.Identity)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("application %s not found after create", app.Identity)
	}
	if tag.RowsAffected() == 0 {
		return existing, &DuplicateIdentityError{Identity: app.Identity, Existing: existing}
	}
	return existing, nil
}

// GetApplication retrieves an application record by identity.
func (db *Postgres) GetApplication(ctx context.Context, id types.Identity) (*types.ApplicationRecord, error) {
	var a types.ApplicationRecord
	var historyJSON, retriesJSON []byte
	var resumeVariant *string

	err := db.pool.QueryRow(ctx,
		`SELECT id, identity, company, role, status, history, resume_variant,
		        match_score, ats_score, retry_counts, version, created_at, updated_at
		 FROM applications WHERE identity = $1`,
		id,
	).Scan(&a.ID, &a.Identity, &a.Company, &a.Role, &a.Status, &historyJSON,
		&resumeVariant, &a.MatchScore, &a.ATSScore, &retriesJSON,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	if resumeVariant != nil {
		a.ResumeVariant = *resumeVariant
	}
	if historyJSON != nil {
		_ = json.Unmarshal(historyJSON, &a.History)
	}
	if retriesJSON != nil {
		_ = json.Unmarshal(retriesJSON, &a.RetryCounts)
	}

	return &a, nil
}

// UpdateApplication applies a mutation under an optimistic version check.
// The mutation runs against a fresh read inside a transaction; the write
// only lands if the version is still the one the caller observed.
func (db *Postgres) UpdateApplication(ctx context.Context, id types.Identity, expectedVersion int64, mutate Mutation) (*types.ApplicationRecord, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			fmt.Printf("Rollback error: %v\n", rErr)
		}
	}()

	var a types.ApplicationRecord
	var historyJSON, retriesJSON []byte
	var resumeVariant *string

	err = tx.QueryRow(ctx,
		`SELECT id, identity, company, role, status, history, resume_variant,
		        match_score, ats_score, retry_counts, version, created_at, updated_at
		 FROM applications WHERE identity = $1
		 FOR UPDATE`,
		id,
	).Scan(&a.ID, &a.Identity, &a.Company, &a.Role, &a.Status, &historyJSON,
		&resumeVariant, &a.MatchScore, &a.ATSScore, &retriesJSON,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Identity: id}
		}
		return nil, fmt.Errorf("failed to read application for update: %w", err)
	}

	if resumeVariant != nil {
		a.ResumeVariant = *resumeVariant
	}
	if historyJSON != nil {
		_ = json.Unmarshal(historyJSON, &a.History)
	}
	if retriesJSON != nil {
		_ = json.Unmarshal(retriesJSON, &a.RetryCounts)
	}

	if a.Version != expectedVersion {
		return nil, &ConflictError{Identity: id, Expected: expectedVersion, Actual: a.Version}
	}

	if err := mutate(&a); err != nil {
		return nil, err
	}

	a.Version++
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}

	newHistory, err := json.Marshal(a.History)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	newRetries, err := json.Marshal(a.RetryCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal retry counts: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE applications
		 SET status = $2, history = $3, resume_variant = $4, match_score = $5,
		     ats_score = $6, retry_counts = $7, version = $8, updated_at = $9
		 WHERE identity = $1`,
		id, a.Status, newHistory, nullIfEmpty(a.ResumeVariant), a.MatchScore,
		a.ATSScore, newRetries, a.Version, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &a, nil
}

// ListApplicationsByStatus retrieves all applications at a status, newest
// update first.
func (db *Postgres) ListApplicationsByStatus(ctx context.Context, status types.Status) ([]*types.ApplicationRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, identity, company, role, status, history, resume_variant,
		        match_score, ats_score, retry_counts, version, created_at, updated_at
		 FROM applications WHERE status = $1
		 ORDER BY updated_at DESC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*types.ApplicationRecord
	for rows.Next() {
		var a types.ApplicationRecord
		var historyJSON, retriesJSON []byte
		var resumeVariant *string

		if err := rows.Scan(&a.ID, &a.Identity, &a.Company, &a.Role, &a.Status,
			&historyJSON, &resumeVariant, &a.MatchScore, &a.ATSScore, &retriesJSON,
			&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}

		if resumeVariant != nil {
			a.ResumeVariant = *resumeVariant
		}
		if historyJSON != nil {
			_ = json.Unmarshal(historyJSON, &a.History)
		}
		if retriesJSON != nil {
			_ = json.Unmarshal(retriesJSON, &a.RetryCounts)
		}

		apps = append(apps, &a)
	}
	return apps, nil
}

// PipelineStats returns application counts grouped by status.
func (db *Postgres) PipelineStats(ctx context.Context) (map[types.Status]int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM applications GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[types.Status]int)
	for rows.Next() {
		var status types.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[status] = count
	}
	return stats, nil
}

// nullIfEmpty converts empty strings to NULL for nullable text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

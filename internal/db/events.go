package db

import (
	"context"
	"fmt"
	"time"
)

// AppendActionEvent appends an admitted action to the append-only log.
// Only admitted attempts are recorded; denials never reach this call.
func (db *Postgres) AppendActionEvent(ctx context.Context, category string, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO action_events (category, occurred_at) VALUES ($1, $2)`,
		category, at,
	)
	if err != nil {
		return fmt.Errorf("failed to append action event: %w", err)
	}
	return nil
}

// ActionEventsSince returns events for a category at or after since, oldest
// first. History older than the window is left in place for audit; window
// expiry is the caller's arithmetic, not a delete.
func (db *Postgres) ActionEventsSince(ctx context.Context, category string, since time.Time) ([]ActionEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT category, occurred_at FROM action_events
		 WHERE category = $1 AND occurred_at >= $2
		 ORDER BY occurred_at ASC`,
		category, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list action events: %w", err)
	}
	defer rows.Close()

	var events []ActionEvent
	for rows.Next() {
		var e ActionEvent
		if err := rows.Scan(&e.Category, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan action event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: Index request listings by status so the staff dashboard
	// query (pending first, newest first) doesn't scan the whole table.
	`CREATE INDEX IF NOT EXISTS idx_requests_status
	     ON blood_requests(status, created_at)`,
	// Migration 2: Index donations by donor for per-donor history lookups.
	`CREATE INDEX IF NOT EXISTS idx_donations_donor
	     ON donations(donor_id, donated_at)`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

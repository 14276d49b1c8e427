package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// custody_events and transfer_requests intentionally carry no foreign key
// to resources: both are historical records that must outlive a deleted
// resource.
const schema = `
CREATE TABLE IF NOT EXISTS resources (
    id          INTEGER PRIMARY KEY,
    code        TEXT NOT NULL,
    building    TEXT,
    room        TEXT,
    description TEXT,
    photo       BLOB,
    photo_mime  TEXT,
    holder_id   TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_code ON resources(code);

CREATE TABLE IF NOT EXISTS custody_events (
    id           INTEGER PRIMARY KEY,
    resource_id  INTEGER NOT NULL,
    event_type   TEXT NOT NULL CHECK (event_type IN ('assigned', 'unassigned', 'transferred')),
    from_actor   TEXT,
    to_actor     TEXT,
    performed_by TEXT NOT NULL,
    note         TEXT,
    created_at   DATETIME NOT NULL,
    prev_hash    TEXT NOT NULL,
    hash         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_custody_events_resource ON custody_events(resource_id);

CREATE TABLE IF NOT EXISTS transfer_requests (
    id               INTEGER PRIMARY KEY,
    resource_id      INTEGER NOT NULL,
    from_actor       TEXT NOT NULL,
    to_actor         TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
    note             TEXT,
    rejection_reason TEXT,
    requested_by     TEXT NOT NULL,
    requested_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at      DATETIME,
    resolved_by      TEXT
);

CREATE INDEX IF NOT EXISTS idx_transfer_requests_resource ON transfer_requests(resource_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: enforce at most one pending transfer request per
	// resource with a partial unique index, so two racing creates cannot
	// both commit.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transfer_requests_pending
	     ON transfer_requests(resource_id) WHERE status = 'pending'`,
	// Migration 2: actor history queries scan by participant.
	`CREATE INDEX IF NOT EXISTS idx_custody_events_actors
	     ON custody_events(from_actor, to_actor, performed_by)`,
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

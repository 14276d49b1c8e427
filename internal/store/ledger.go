package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jvidmar/kljucar/internal/model"
)

// appendEvent inserts a custody event inside the caller's transaction,
// chaining it to the resource's previous event. Must run in the same
// transaction as the holder change it records.
func appendEvent(ctx context.Context, tx *sql.Tx, e *model.CustodyEvent) error {
	var prev sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT hash FROM custody_events WHERE resource_id = ? ORDER BY id DESC LIMIT 1`,
		e.ResourceID,
	).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("reading previous event hash: %w", err)
	}
	e.PrevHash = prev.String
	e.Hash = eventHash(e)

	result, err := tx.ExecContext(ctx,
		`INSERT INTO custody_events (resource_id, event_type, from_actor, to_actor, performed_by, note, created_at, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ResourceID, e.Type, nullable(e.FromActor), nullable(e.ToActor),
		e.PerformedBy, e.Note, e.CreatedAt, e.PrevHash, e.Hash,
	)
	if err != nil {
		return fmt.Errorf("appending custody event: %w", err)
	}
	e.ID, _ = result.LastInsertId()
	return nil
}

// eventHash computes the chained hash of an event. The timestamp enters
// the hash as UnixNano so the value survives database round-trips.
func eventHash(e *model.CustodyEvent) string {
	// 0x1f separates fields so shifted content cannot collide.
	payload := strings.Join([]string{
		e.PrevHash,
		strconv.FormatInt(e.ResourceID, 10),
		e.Type,
		e.FromActor,
		e.ToActor,
		e.PerformedBy,
		e.Note,
		strconv.FormatInt(e.CreatedAt.UnixNano(), 10),
	}, "\x1f")
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ResourceHistory returns all custody events for a resource, oldest
// first. Returns model.ErrNotFound for an unknown resource.
func ResourceHistory(ctx context.Context, db *sql.DB, resourceID int64) ([]model.CustodyEvent, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resources WHERE id = ?`, resourceID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking resource: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("resource %d: %w", resourceID, model.ErrNotFound)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT e.id, e.resource_id, e.event_type, e.from_actor, e.to_actor, e.performed_by, e.note,
		        e.created_at, e.prev_hash, e.hash, r.code
		 FROM custody_events e
		 LEFT JOIN resources r ON r.id = e.resource_id
		 WHERE e.resource_id = ?
		 ORDER BY e.id`, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading resource history: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ActorHistory returns all custody events touching an actor, as source,
// recipient or performer, oldest first.
func ActorHistory(ctx context.Context, db *sql.DB, actorID string) ([]model.CustodyEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT e.id, e.resource_id, e.event_type, e.from_actor, e.to_actor, e.performed_by, e.note,
		        e.created_at, e.prev_hash, e.hash, r.code
		 FROM custody_events e
		 LEFT JOIN resources r ON r.id = e.resource_id
		 WHERE e.from_actor = ? OR e.to_actor = ? OR e.performed_by = ?
		 ORDER BY e.id`, actorID, actorID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading actor history: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// VerifyResourceLedger recomputes the hash chain of a resource's ledger.
// Returns the number of verified events, or an error naming the first
// event whose stored hash or chain link does not match.
func VerifyResourceLedger(ctx context.Context, db *sql.DB, resourceID int64) (int, error) {
	events, err := ResourceHistory(ctx, db, resourceID)
	if err != nil {
		return 0, err
	}

	prev := ""
	for i := range events {
		e := &events[i]
		if e.PrevHash != prev {
			return i, fmt.Errorf("event %d: chain link broken", e.ID)
		}
		if eventHash(e) != e.Hash {
			return i, fmt.Errorf("event %d: hash mismatch", e.ID)
		}
		prev = e.Hash
	}
	return len(events), nil
}

func scanEvents(rows *sql.Rows) ([]model.CustodyEvent, error) {
	var events []model.CustodyEvent
	for rows.Next() {
		var e model.CustodyEvent
		var from, to, note, code sql.NullString
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.Type, &from, &to, &e.PerformedBy, &note,
			&e.CreatedAt, &e.PrevHash, &e.Hash, &code); err != nil {
			return nil, fmt.Errorf("scanning custody event: %w", err)
		}
		e.FromActor = from.String
		e.ToActor = to.String
		e.Note = note.String
		e.ResourceCode = code.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// nullable maps an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

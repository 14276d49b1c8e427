package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jvidmar/kljucar/internal/model"
)

// AssignResource gives an unassigned resource to an actor and records an
// "assigned" ledger event, in a single transaction. Returns
// model.ErrConflict if the resource already has a holder.
func AssignResource(ctx context.Context, db *sql.DB, resourceID int64, actorID, performedBy, note string) (*model.Resource, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holder sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT holder_id FROM resources WHERE id = ?`, resourceID,
	).Scan(&holder)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resource %d: %w", resourceID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking holder: %w", err)
	}
	if holder.Valid {
		return nil, fmt.Errorf("resource %d already held by %s: %w", resourceID, holder.String, model.ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET holder_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		actorID, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("setting holder: %w", err)
	}

	event := &model.CustodyEvent{
		ResourceID:  resourceID,
		Type:        model.EventAssigned,
		ToActor:     actorID,
		PerformedBy: performedBy,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}
	if err := appendEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}

	return GetResource(ctx, db, resourceID)
}

// UnassignResource clears a resource's holder and records an "unassigned"
// ledger event, in a single transaction. Returns model.ErrConflict if the
// resource has no holder, or, when requireHolder is non-nil, if the
// current holder is someone else (a holder returning a key they no longer
// hold).
func UnassignResource(ctx context.Context, db *sql.DB, resourceID int64, performedBy, note string, requireHolder *string) (*model.Resource, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holder sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT holder_id FROM resources WHERE id = ?`, resourceID,
	).Scan(&holder)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resource %d: %w", resourceID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking holder: %w", err)
	}
	if !holder.Valid {
		return nil, fmt.Errorf("resource %d has no holder: %w", resourceID, model.ErrConflict)
	}
	if requireHolder != nil && holder.String != *requireHolder {
		return nil, fmt.Errorf("resource %d held by %s, not %s: %w", resourceID, holder.String, *requireHolder, model.ErrConflict)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET holder_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("clearing holder: %w", err)
	}

	event := &model.CustodyEvent{
		ResourceID:  resourceID,
		Type:        model.EventUnassigned,
		FromActor:   holder.String,
		PerformedBy: performedBy,
		Note:        note,
		CreatedAt:   time.Now().UTC(),
	}
	if err := appendEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing unassignment: %w", err)
	}

	return GetResource(ctx, db, resourceID)
}

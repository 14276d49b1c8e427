package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jvidmar/kljucar/internal/model"
)

// CreateTransferRequest opens a pending transfer proposal for a resource.
// At most one pending request may exist per resource; a second create
// returns model.ErrConflict. The resource must currently be held by
// fromActor.
func CreateTransferRequest(ctx context.Context, db *sql.DB, resourceID int64, fromActor, toActor, note, requestedBy string) (*model.TransferRequest, error) {
	if fromActor == toActor {
		return nil, fmt.Errorf("cannot transfer to the same actor: %w", model.ErrConflict)
	}

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
	if !holder.Valid || holder.String != fromActor {
		return nil, fmt.Errorf("resource %d not held by %s: %w", resourceID, fromActor, model.ErrConflict)
	}

	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_requests WHERE resource_id = ? AND status = ?`,
		resourceID, model.StatusPending,
	).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests: %w", err)
	}
	if pending > 0 {
		return nil, fmt.Errorf("transfer already pending for resource %d: %w", resourceID, model.ErrConflict)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transfer_requests (resource_id, from_actor, to_actor, note, requested_by)
		 VALUES (?, ?, ?, ?, ?)`,
		resourceID, fromActor, toActor, note, requestedBy,
	)
	if err != nil {
		// The partial unique index catches creates that raced past the
		// SELECT above.
		if isUniqueViolation(err, "transfer_requests.resource_id") {
			return nil, fmt.Errorf("transfer already pending for resource %d: %w", resourceID, model.ErrConflict)
		}
		return nil, fmt.Errorf("creating transfer request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer request: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetTransferRequest(ctx, db, id)
}

// GetTransferRequest returns a transfer request by ID.
// Returns model.ErrNotFound if it does not exist.
func GetTransferRequest(ctx context.Context, db *sql.DB, id int64) (*model.TransferRequest, error) {
	t := &model.TransferRequest{}
	var note, reason, resolvedBy, code sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT t.id, t.resource_id, t.from_actor, t.to_actor, t.status, t.note, t.rejection_reason,
		        t.requested_by, t.requested_at, t.resolved_at, t.resolved_by, r.code
		 FROM transfer_requests t
		 LEFT JOIN resources r ON r.id = t.resource_id
		 WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.ResourceID, &t.FromActor, &t.ToActor, &t.Status, &note, &reason,
		&t.RequestedBy, &t.RequestedAt, &t.ResolvedAt, &resolvedBy, &code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer request %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer request: %w", err)
	}
	t.Note = note.String
	t.RejectionReason = reason.String
	t.ResolvedBy = resolvedBy.String
	t.ResourceCode = code.String
	return t, nil
}

// ListTransferRequests returns transfer requests, optionally filtered by
// source actor, recipient actor and status, newest first.
func ListTransferRequests(ctx context.Context, db *sql.DB, fromActor, toActor, status string) ([]model.TransferRequest, error) {
	query := `SELECT t.id, t.resource_id, t.from_actor, t.to_actor, t.status, t.note, t.rejection_reason,
	                 t.requested_by, t.requested_at, t.resolved_at, t.resolved_by, r.code
	          FROM transfer_requests t
	          LEFT JOIN resources r ON r.id = t.resource_id
	          WHERE 1=1`
	var args []any

	if fromActor != "" {
		query += ` AND t.from_actor = ?`
		args = append(args, fromActor)
	}
	if toActor != "" {
		query += ` AND t.to_actor = ?`
		args = append(args, toActor)
	}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY t.requested_at DESC, t.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TransferRequest
	for rows.Next() {
		var t model.TransferRequest
		var note, reason, resolvedBy, code sql.NullString
		if err := rows.Scan(&t.ID, &t.ResourceID, &t.FromActor, &t.ToActor, &t.Status, &note, &reason,
			&t.RequestedBy, &t.RequestedAt, &t.ResolvedAt, &resolvedBy, &code); err != nil {
			return nil, fmt.Errorf("scanning transfer request: %w", err)
		}
		t.Note = note.String
		t.RejectionReason = reason.String
		t.ResolvedBy = resolvedBy.String
		t.ResourceCode = code.String
		requests = append(requests, t)
	}
	return requests, rows.Err()
}

// ApproveTransferRequest resolves a pending request by moving custody:
// the resource's holder changes to the recipient, a "transferred" ledger
// event is appended, and the request becomes approved — all in one
// transaction.
//
// If the resource's holder no longer matches the request's source actor,
// the request is auto-rejected (reason "resource state changed") and
// model.ErrStaleRequest is returned; the rejection is committed.
func ApproveTransferRequest(ctx context.Context, db *sql.DB, id int64, actingActor string) (*model.TransferRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var resourceID int64
	var fromActor, toActor, status string
	err = tx.QueryRowContext(ctx,
		`SELECT resource_id, from_actor, to_actor, status FROM transfer_requests WHERE id = ?`, id,
	).Scan(&resourceID, &fromActor, &toActor, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer request %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading transfer request: %w", err)
	}
	if status != model.StatusPending {
		return nil, fmt.Errorf("transfer request %d is %s: %w", id, status, model.ErrInvalidState)
	}

	now := time.Now().UTC()

	var holder sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT holder_id FROM resources WHERE id = ?`, resourceID,
	).Scan(&holder)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking holder: %w", err)
	}

	if !holder.Valid || holder.String != fromActor {
		// Custody moved out from under the request. Resolve it to
		// rejected so it cannot be approved later either.
		_, err = tx.ExecContext(ctx,
			`UPDATE transfer_requests SET status = ?, rejection_reason = ?, resolved_at = ?, resolved_by = ?
			 WHERE id = ?`,
			model.StatusRejected, model.StaleRejectionReason, now, actingActor, id,
		)
		if err != nil {
			return nil, fmt.Errorf("auto-rejecting stale request: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing auto-rejection: %w", err)
		}
		return nil, fmt.Errorf("transfer request %d: %w", id, model.ErrStaleRequest)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET holder_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		toActor, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("setting holder: %w", err)
	}

	event := &model.CustodyEvent{
		ResourceID:  resourceID,
		Type:        model.EventTransferred,
		FromActor:   fromActor,
		ToActor:     toActor,
		PerformedBy: actingActor,
		CreatedAt:   now,
	}
	if err := appendEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transfer_requests SET status = ?, resolved_at = ?, resolved_by = ? WHERE id = ?`,
		model.StatusApproved, now, actingActor, id,
	)
	if err != nil {
		return nil, fmt.Errorf("approving transfer request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	return GetTransferRequest(ctx, db, id)
}

// RejectTransferRequest resolves a pending request as rejected with a
// reason. No custody changes and no ledger event.
func RejectTransferRequest(ctx context.Context, db *sql.DB, id int64, actingActor, reason string) (*model.TransferRequest, error) {
	return resolveTerminal(ctx, db, id, model.StatusRejected, reason, actingActor)
}

// CancelTransferRequest resolves a pending request as cancelled. No
// custody changes and no ledger event.
func CancelTransferRequest(ctx context.Context, db *sql.DB, id int64, actingActor string) (*model.TransferRequest, error) {
	return resolveTerminal(ctx, db, id, model.StatusCancelled, "", actingActor)
}

// resolveTerminal moves a pending request to a terminal state without
// touching custody. Terminal requests stay as they are:
// model.ErrInvalidState for anything already resolved.
func resolveTerminal(ctx context.Context, db *sql.DB, id int64, newStatus, reason, actingActor string) (*model.TransferRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM transfer_requests WHERE id = ?`, id,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer request %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading transfer request: %w", err)
	}
	if status != model.StatusPending {
		return nil, fmt.Errorf("transfer request %d is %s: %w", id, status, model.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transfer_requests SET status = ?, rejection_reason = ?, resolved_at = ?, resolved_by = ?
		 WHERE id = ?`,
		newStatus, nullable(reason), time.Now().UTC(), actingActor, id,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving transfer request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resolution: %w", err)
	}

	return GetTransferRequest(ctx, db, id)
}

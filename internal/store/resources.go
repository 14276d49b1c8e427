package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jvidmar/kljucar/internal/model"
)

// CreateResource registers a new custodial resource with no holder.
// Returns model.ErrDuplicateCode if the code is already taken.
func CreateResource(ctx context.Context, db *sql.DB, code, building, room, description string) (*model.Resource, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO resources (code, building, room, description) VALUES (?, ?, ?, ?)`,
		code, building, room, description,
	)
	if err != nil {
		if isUniqueViolation(err, "resources.code") {
			return nil, fmt.Errorf("creating resource %q: %w", code, model.ErrDuplicateCode)
		}
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting resource id: %w", err)
	}

	return GetResource(ctx, db, id)
}

// GetResource returns a resource by ID.
// Returns model.ErrNotFound if it does not exist.
func GetResource(ctx context.Context, db *sql.DB, id int64) (*model.Resource, error) {
	r := &model.Resource{}
	var building, room, description, photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, code, building, room, description, photo_mime, holder_id, created_at, updated_at
		 FROM resources WHERE id = ?`, id,
	).Scan(&r.ID, &r.Code, &building, &room, &description, &photoMime, &r.HolderID, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting resource: %w", err)
	}
	r.Building = building.String
	r.Room = room.String
	r.Description = description.String
	r.PhotoMime = photoMime.String
	return r, nil
}

// ListResources returns all resources, optionally filtered to one
// holder's resources or to unassigned resources only.
func ListResources(ctx context.Context, db *sql.DB, holderID string, unassigned bool) ([]model.Resource, error) {
	query := `SELECT id, code, building, room, description, photo_mime, holder_id, created_at, updated_at
	          FROM resources`
	var args []any

	switch {
	case holderID != "":
		query += ` WHERE holder_id = ?`
		args = append(args, holderID)
	case unassigned:
		query += ` WHERE holder_id IS NULL`
	}

	query += ` ORDER BY code`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var r model.Resource
		var building, room, description, photoMime sql.NullString
		if err := rows.Scan(&r.ID, &r.Code, &building, &room, &description, &photoMime, &r.HolderID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		r.Building = building.String
		r.Room = room.String
		r.Description = description.String
		r.PhotoMime = photoMime.String
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// DeleteResource removes a resource from the registry. The resource must
// be unassigned and must not be referenced by a pending transfer request,
// otherwise model.ErrConflict is returned. Ledger entries and resolved
// transfer requests are kept.
func DeleteResource(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holder sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT holder_id FROM resources WHERE id = ?`, id,
	).Scan(&holder)
	if err == sql.ErrNoRows {
		return fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking resource: %w", err)
	}
	if holder.Valid {
		return fmt.Errorf("resource %d still has a holder: %w", id, model.ErrConflict)
	}

	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_requests WHERE resource_id = ? AND status = ?`,
		id, model.StatusPending,
	).Scan(&pending)
	if err != nil {
		return fmt.Errorf("checking pending requests: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("resource %d has a pending transfer request: %w", id, model.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing deletion: %w", err)
	}
	return nil
}

// SetResourcePhoto stores a resource's photo.
func SetResourcePhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE resources SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting resource photo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetResourcePhoto returns a resource's photo data and MIME type.
func GetResourcePhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM resources WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("resource %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting resource photo: %w", err)
	}
	return photo, mime.String, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// violation on the given column.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), column)
}

package model

import "errors"

// Sentinel errors for custody operations. Store and service functions
// wrap these with fmt.Errorf("...: %w", ...); callers match with
// errors.Is. All are terminal — callers must re-fetch state and decide
// again rather than retry.
var (
	// ErrNotFound means the resource or transfer request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode means a resource with the same code already exists.
	ErrDuplicateCode = errors.New("resource code already exists")

	// ErrConflict means a custody constraint was violated: assigning a
	// held resource, unassigning a free one, a second pending transfer
	// request, or deleting a resource that is held or referenced.
	ErrConflict = errors.New("conflict with current custody state")

	// ErrInvalidState means the transfer request is already terminal.
	ErrInvalidState = errors.New("transfer request already resolved")

	// ErrStaleRequest means the resource's holder changed after the
	// request was created; the request has been auto-rejected.
	ErrStaleRequest = errors.New("resource changed since request was created")

	// ErrUnauthorized means the acting actor may not perform the
	// operation.
	ErrUnauthorized = errors.New("operation not allowed")
)

package model

import "time"

// TransferRequest is a proposal to move custody of a resource from one
// actor to another. Requests start pending and end in exactly one of the
// terminal states; terminal requests are kept as historical record and
// never change again.
type TransferRequest struct {
	ID              int64      `json:"id"`
	ResourceID      int64      `json:"resource_id"`
	FromActor       string     `json:"from_actor"`
	ToActor         string     `json:"to_actor"`
	Status          string     `json:"status"`
	Note            string     `json:"note,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RequestedBy     string     `json:"requested_by"`
	RequestedAt     time.Time  `json:"requested_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`

	// Joined field (not always populated).
	ResourceCode string `json:"resource_code,omitempty"`
}

// Transfer request statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Pending reports whether the request can still be resolved.
func (t *TransferRequest) Pending() bool {
	return t.Status == StatusPending
}

// StaleRejectionReason is stored when an approval finds the resource's
// holder no longer matching the request and auto-rejects it.
const StaleRejectionReason = "resource state changed"

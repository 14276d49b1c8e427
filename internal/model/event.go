package model

import "time"

// CustodyEvent is one immutable ledger entry recording a realized holder
// change. Entries are hash-chained per resource: Hash covers the entry's
// fields plus PrevHash, so rewriting history breaks the chain.
type CustodyEvent struct {
	ID          int64     `json:"id"`
	ResourceID  int64     `json:"resource_id"`
	Type        string    `json:"event_type"`
	FromActor   string    `json:"from_actor,omitempty"`
	ToActor     string    `json:"to_actor,omitempty"`
	PerformedBy string    `json:"performed_by"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	PrevHash    string    `json:"prev_hash,omitempty"`
	Hash        string    `json:"hash"`

	// Joined field (not always populated).
	ResourceCode string `json:"resource_code,omitempty"`
}

// Event types.
const (
	EventAssigned    = "assigned"
	EventUnassigned  = "unassigned"
	EventTransferred = "transferred"
)

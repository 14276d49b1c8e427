package model

import "time"

// Resource is a custodial item (a room key) that at most one actor holds
// at a time. HolderID is nil when the resource is unassigned.
type Resource struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Building    string    `json:"building,omitempty"`
	Room        string    `json:"room,omitempty"`
	Description string    `json:"description,omitempty"`
	PhotoMime   string    `json:"photo_mime,omitempty"`
	HolderID    *string   `json:"holder_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Held reports whether the resource currently has a holder.
func (r *Resource) Held() bool {
	return r.HolderID != nil
}

// HeldBy reports whether actorID is the current holder.
func (r *Resource) HeldBy(actorID string) bool {
	return r.HolderID != nil && *r.HolderID == actorID
}

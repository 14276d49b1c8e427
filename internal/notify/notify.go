// Package notify delivers fire-and-forget custody notifications to an
// external dispatcher. Delivery is best effort: failures are logged and
// never propagated to the operation that produced the event.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindAssigned          = "custody.assigned"
	KindUnassigned        = "custody.unassigned"
	KindTransferRequested = "transfer.requested"
	KindTransferApproved  = "transfer.approved"
	KindTransferRejected  = "transfer.rejected"
	KindTransferCancelled = "transfer.cancelled"
)

// Event is the payload posted to the webhook.
type Event struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	ResourceID   int64     `json:"resource_id"`
	ResourceCode string    `json:"resource_code,omitempty"`
	RequestID    int64     `json:"request_id,omitempty"`
	FromActor    string    `json:"from_actor,omitempty"`
	ToActor      string    `json:"to_actor,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Note         string    `json:"note,omitempty"`
	At           time.Time `json:"at"`
}

// Dispatcher posts events to a webhook URL. A nil Dispatcher or an empty
// URL only logs the event.
type Dispatcher struct {
	url    string
	client *http.Client
}

// New creates a dispatcher for the given webhook URL. An empty URL is
// valid and means log-only.
func New(url string) *Dispatcher {
	return &Dispatcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send fills in the event's id and timestamp and delivers it in the
// background.
func (d *Dispatcher) Send(event Event) {
	event.ID = uuid.NewString()
	event.At = time.Now().UTC()

	if d == nil || d.url == "" {
		slog.Info("custody notification", "kind", event.Kind,
			"resource", event.ResourceID, "from", event.FromActor, "to", event.ToActor)
		return
	}

	go d.post(event)
}

func (d *Dispatcher) post(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		slog.Error("encoding notification", "error", err, "kind", event.Kind)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("building notification request", "error", err, "kind", event.Kind)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		slog.Warn("delivering notification", "error", err, "kind", event.Kind, "id", event.ID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("notification rejected", "status", resp.StatusCode, "kind", event.Kind, "id", event.ID)
	}
}

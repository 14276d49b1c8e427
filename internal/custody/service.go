// Package custody is the façade over the resource registry, the custody
// ledger and the transfer-request state machine. It is the only place
// that combines authorization policy with state transitions; HTTP
// handlers call it and nothing else mutates custody.
package custody

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jvidmar/kljucar/internal/metrics"
	"github.com/jvidmar/kljucar/internal/model"
	"github.com/jvidmar/kljucar/internal/notify"
	"github.com/jvidmar/kljucar/internal/policy"
	"github.com/jvidmar/kljucar/internal/store"
)

// Service exposes the custody operation set.
type Service struct {
	db     *sql.DB
	notify *notify.Dispatcher
}

// NewService creates the custody service. dispatcher may be nil (no
// notifications beyond logs).
func NewService(db *sql.DB, dispatcher *notify.Dispatcher) *Service {
	return &Service{db: db, notify: dispatcher}
}

// CreateResource registers a new resource. Caller must already be
// authorized (admin-gated at the API layer).
func (s *Service) CreateResource(ctx context.Context, code, building, room, description string) (*model.Resource, error) {
	return store.CreateResource(ctx, s.db, code, building, room, description)
}

// GetResource returns a resource by ID.
func (s *Service) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	return store.GetResource(ctx, s.db, id)
}

// ListResources lists resources, optionally by holder or unassigned only.
func (s *Service) ListResources(ctx context.Context, holderID string, unassigned bool) ([]model.Resource, error) {
	return store.ListResources(ctx, s.db, holderID, unassigned)
}

// DeleteResource removes an unassigned, unreferenced resource.
func (s *Service) DeleteResource(ctx context.Context, id int64) error {
	return store.DeleteResource(ctx, s.db, id)
}

// Assign gives an unassigned resource to holderID as a single-authority
// action. Only administrators may assign directly.
func (s *Service) Assign(ctx context.Context, actor model.Actor, resourceID int64, holderID, note string) (*model.Resource, error) {
	if !policy.CanDirectAssign(actor) {
		return nil, fmt.Errorf("assign resource %d: %w", resourceID, model.ErrUnauthorized)
	}

	resource, err := store.AssignResource(ctx, s.db, resourceID, holderID, actor.ID, note)
	if err != nil {
		return nil, err
	}

	metrics.RecordCustodyEvent(model.EventAssigned)
	s.notify.Send(notify.Event{
		Kind:         notify.KindAssigned,
		ResourceID:   resource.ID,
		ResourceCode: resource.Code,
		ToActor:      holderID,
		Actor:        actor.ID,
		Note:         note,
	})
	return resource, nil
}

// Unassign takes a resource back from its holder as a single-authority
// action. Administrators may unassign any resource; a holder only their
// own.
func (s *Service) Unassign(ctx context.Context, actor model.Actor, resourceID int64, note string) (*model.Resource, error) {
	resource, err := store.GetResource(ctx, s.db, resourceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDirectUnassign(actor, resource) {
		return nil, fmt.Errorf("unassign resource %d: %w", resourceID, model.ErrUnauthorized)
	}

	// Non-admins must still be the holder when the transaction runs,
	// not just when the policy check passed.
	var requireHolder *string
	if !actor.IsAdmin() {
		requireHolder = &actor.ID
	}

	previous := ""
	if resource.HolderID != nil {
		previous = *resource.HolderID
	}

	updated, err := store.UnassignResource(ctx, s.db, resourceID, actor.ID, note, requireHolder)
	if err != nil {
		return nil, err
	}

	metrics.RecordCustodyEvent(model.EventUnassigned)
	s.notify.Send(notify.Event{
		Kind:         notify.KindUnassigned,
		ResourceID:   updated.ID,
		ResourceCode: updated.Code,
		FromActor:    previous,
		Actor:        actor.ID,
		Note:         note,
	})
	return updated, nil
}

// CreateTransfer opens a pending transfer request from fromActor to
// toActor. The acting actor must be the current holder or an
// administrator acting on the holder's behalf.
func (s *Service) CreateTransfer(ctx context.Context, actor model.Actor, resourceID int64, fromActor, toActor, note string) (*model.TransferRequest, error) {
	resource, err := store.GetResource(ctx, s.db, resourceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateTransfer(actor, resource) {
		return nil, fmt.Errorf("create transfer for resource %d: %w", resourceID, model.ErrUnauthorized)
	}
	if !actor.IsAdmin() && actor.ID != fromActor {
		return nil, fmt.Errorf("transfer can only be opened by its source actor: %w", model.ErrUnauthorized)
	}

	request, err := store.CreateTransferRequest(ctx, s.db, resourceID, fromActor, toActor, note, actor.ID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransferOutcome("created")
	s.notify.Send(notify.Event{
		Kind:         notify.KindTransferRequested,
		ResourceID:   request.ResourceID,
		ResourceCode: request.ResourceCode,
		RequestID:    request.ID,
		FromActor:    request.FromActor,
		ToActor:      request.ToActor,
		Actor:        actor.ID,
		Note:         note,
	})
	return request, nil
}

// ApproveTransfer resolves a pending request by moving custody. Only the
// proposed recipient or an administrator may approve.
func (s *Service) ApproveTransfer(ctx context.Context, actor model.Actor, requestID int64) (*model.TransferRequest, error) {
	request, err := store.GetTransferRequest(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if !policy.CanApprove(actor, request) {
		return nil, fmt.Errorf("approve transfer %d: %w", requestID, model.ErrUnauthorized)
	}

	approved, err := store.ApproveTransferRequest(ctx, s.db, requestID, actor.ID)
	if err != nil {
		return nil, err
	}

	metrics.RecordCustodyEvent(model.EventTransferred)
	metrics.RecordTransferOutcome("approved")
	s.notify.Send(notify.Event{
		Kind:         notify.KindTransferApproved,
		ResourceID:   approved.ResourceID,
		ResourceCode: approved.ResourceCode,
		RequestID:    approved.ID,
		FromActor:    approved.FromActor,
		ToActor:      approved.ToActor,
		Actor:        actor.ID,
	})
	return approved, nil
}

// RejectTransfer declines a pending request. Only the proposed recipient
// or an administrator may reject.
func (s *Service) RejectTransfer(ctx context.Context, actor model.Actor, requestID int64, reason string) (*model.TransferRequest, error) {
	request, err := store.GetTransferRequest(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReject(actor, request) {
		return nil, fmt.Errorf("reject transfer %d: %w", requestID, model.ErrUnauthorized)
	}

	rejected, err := store.RejectTransferRequest(ctx, s.db, requestID, actor.ID, reason)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransferOutcome("rejected")
	s.notify.Send(notify.Event{
		Kind:         notify.KindTransferRejected,
		ResourceID:   rejected.ResourceID,
		ResourceCode: rejected.ResourceCode,
		RequestID:    rejected.ID,
		FromActor:    rejected.FromActor,
		ToActor:      rejected.ToActor,
		Actor:        actor.ID,
		Note:         reason,
	})
	return rejected, nil
}

// CancelTransfer withdraws a pending request. Only its source actor or
// an administrator may cancel.
func (s *Service) CancelTransfer(ctx context.Context, actor model.Actor, requestID int64) (*model.TransferRequest, error) {
	request, err := store.GetTransferRequest(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCancel(actor, request) {
		return nil, fmt.Errorf("cancel transfer %d: %w", requestID, model.ErrUnauthorized)
	}

	cancelled, err := store.CancelTransferRequest(ctx, s.db, requestID, actor.ID)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransferOutcome("cancelled")
	s.notify.Send(notify.Event{
		Kind:         notify.KindTransferCancelled,
		ResourceID:   cancelled.ResourceID,
		ResourceCode: cancelled.ResourceCode,
		RequestID:    cancelled.ID,
		FromActor:    cancelled.FromActor,
		ToActor:      cancelled.ToActor,
		Actor:        actor.ID,
	})
	return cancelled, nil
}

// GetTransfer returns a transfer request by ID.
func (s *Service) GetTransfer(ctx context.Context, id int64) (*model.TransferRequest, error) {
	return store.GetTransferRequest(ctx, s.db, id)
}

// ListTransfers lists transfer requests filtered by source actor,
// recipient actor and status.
func (s *Service) ListTransfers(ctx context.Context, fromActor, toActor, status string) ([]model.TransferRequest, error) {
	return store.ListTransferRequests(ctx, s.db, fromActor, toActor, status)
}

// ListPendingFor returns pending requests awaiting the actor's approval.
func (s *Service) ListPendingFor(ctx context.Context, actorID string) ([]model.TransferRequest, error) {
	return store.ListTransferRequests(ctx, s.db, "", actorID, model.StatusPending)
}

// History returns the full custody ledger of a resource, oldest first.
func (s *Service) History(ctx context.Context, resourceID int64) ([]model.CustodyEvent, error) {
	return store.ResourceHistory(ctx, s.db, resourceID)
}

// ActorHistory returns all ledger events touching an actor, oldest first.
func (s *Service) ActorHistory(ctx context.Context, actorID string) ([]model.CustodyEvent, error) {
	return store.ActorHistory(ctx, s.db, actorID)
}

// VerifyLedger recomputes the hash chain of a resource's ledger and
// returns the number of verified events. A non-nil error names the first
// broken entry.
func (s *Service) VerifyLedger(ctx context.Context, resourceID int64) (int, error) {
	return store.VerifyResourceLedger(ctx, s.db, resourceID)
}

// SetPhoto stores a processed photo for a resource.
func (s *Service) SetPhoto(ctx context.Context, resourceID int64, photo []byte, mime string) error {
	return store.SetResourcePhoto(ctx, s.db, resourceID, photo, mime)
}

// GetPhoto returns a resource's photo data and MIME type.
func (s *Service) GetPhoto(ctx context.Context, resourceID int64) ([]byte, string, error) {
	return store.GetResourcePhoto(ctx, s.db, resourceID)
}

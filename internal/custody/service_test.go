package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/jvidmar/kljucar/internal/db"
	"github.com/jvidmar/kljucar/internal/model"
)

var (
	admin = model.Actor{ID: "admin", Name: "Admin", Role: model.RoleAdmin}
	alice = model.Actor{ID: "alice", Name: "Alice", Role: model.RoleUser}
	bob   = model.Actor{ID: "bob", Name: "Bob", Role: model.RoleUser}
	carol = model.Actor{ID: "carol", Name: "Carol", Role: model.RoleUser}
)

func newTestService(t *testing.T) *Service {
	return NewService(db.NewTestDB(t), nil)
}

func TestAssignRequiresAdmin(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")

	if _, err := service.Assign(ctx, alice, res.ID, "alice", ""); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-admin, got %v", err)
	}

	got, err := service.Assign(ctx, admin, res.ID, "alice", "")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !got.HeldBy("alice") {
		t.Errorf("expected holder alice, got %v", got.HolderID)
	}
}

func TestUnassignPolicy(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")
	service.Assign(ctx, admin, res.ID, "alice", "")

	// A third party may not unassign.
	if _, err := service.Unassign(ctx, bob, res.ID, ""); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-holder, got %v", err)
	}

	// The holder may.
	got, err := service.Unassign(ctx, alice, res.ID, "returning")
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if got.Held() {
		t.Errorf("expected unassigned resource, got holder %v", got.HolderID)
	}

	// Admin may unassign any held resource.
	service.Assign(ctx, admin, res.ID, "bob", "")
	if _, err := service.Unassign(ctx, admin, res.ID, ""); err != nil {
		t.Errorf("admin unassign: %v", err)
	}
}

func TestCreateTransferPolicy(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")
	service.Assign(ctx, admin, res.ID, "alice", "")

	// Only the holder (or an admin) may open a transfer.
	if _, err := service.CreateTransfer(ctx, bob, res.ID, "alice", "bob", ""); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-holder, got %v", err)
	}

	// The holder cannot open a transfer on someone else's behalf.
	if _, err := service.CreateTransfer(ctx, alice, res.ID, "bob", "carol", ""); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for mismatched source, got %v", err)
	}

	req, err := service.CreateTransfer(ctx, alice, res.ID, "alice", "bob", "")
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if !req.Pending() {
		t.Errorf("expected pending request, got %q", req.Status)
	}
}

func TestApproveTransferPolicy(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")
	service.Assign(ctx, admin, res.ID, "alice", "")
	req, _ := service.CreateTransfer(ctx, alice, res.ID, "alice", "bob", "")

	// Neither the source actor nor a bystander may approve.
	if _, err := service.ApproveTransfer(ctx, alice, req.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for source actor, got %v", err)
	}
	if _, err := service.ApproveTransfer(ctx, carol, req.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for bystander, got %v", err)
	}

	approved, err := service.ApproveTransfer(ctx, bob, req.ID)
	if err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if approved.Status != model.StatusApproved {
		t.Errorf("expected approved, got %q", approved.Status)
	}

	got, _ := service.GetResource(ctx, res.ID)
	if !got.HeldBy("bob") {
		t.Errorf("expected holder bob, got %v", got.HolderID)
	}
}

func TestAdminMayApprove(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")
	service.Assign(ctx, admin, res.ID, "alice", "")
	req, _ := service.CreateTransfer(ctx, alice, res.ID, "alice", "bob", "")

	if _, err := service.ApproveTransfer(ctx, admin, req.ID); err != nil {
		t.Errorf("admin approve: %v", err)
	}
}

func TestCancelTransferPolicy(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	res, _ := service.CreateResource(ctx, "K-101", "", "", "")
	service.Assign(ctx, admin, res.ID, "alice", "")
	req, _ := service.CreateTransfer(ctx, alice, res.ID, "alice", "bob", "")

	// The recipient may not cancel, only reject.
	if _, err := service.CancelTransfer(ctx, bob, req.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for recipient, got %v", err)
	}

	cancelled, err := service.CancelTransfer(ctx, alice, req.ID)
	if err != nil {
		t.Fatalf("CancelTransfer: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %q", cancelled.Status)
	}
}

func TestListPendingFor(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	a, _ := service.CreateResource(ctx, "K-101", "", "", "")
	b, _ := service.CreateResource(ctx, "K-102", "", "", "")
	service.Assign(ctx, admin, a.ID, "alice", "")
	service.Assign(ctx, admin, b.ID, "carol", "")

	service.CreateTransfer(ctx, alice, a.ID, "alice", "bob", "")
	service.CreateTransfer(ctx, carol, b.ID, "carol", "bob", "")

	pending, err := service.ListPendingFor(ctx, "bob")
	if err != nil {
		t.Fatalf("ListPendingFor: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending requests for bob, got %d", len(pending))
	}

	if pending, _ := service.ListPendingFor(ctx, "alice"); len(pending) != 0 {
		t.Errorf("expected no pending requests for alice, got %d", len(pending))
	}
}

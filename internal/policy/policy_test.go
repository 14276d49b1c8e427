package policy

import (
	"testing"

	"github.com/jvidmar/kljucar/internal/model"
)

var (
	admin = model.Actor{ID: "root", Role: model.RoleAdmin}
	alice = model.Actor{ID: "alice", Role: model.RoleUser}
	bob   = model.Actor{ID: "bob", Role: model.RoleUser}
	carol = model.Actor{ID: "carol", Role: model.RoleUser}
)

func heldBy(actorID string) *model.Resource {
	return &model.Resource{ID: 1, Code: "K-101", HolderID: &actorID}
}

func TestCanDirectAssign(t *testing.T) {
	if !CanDirectAssign(admin) {
		t.Error("admin should be allowed to assign")
	}
	if CanDirectAssign(alice) {
		t.Error("regular actor should not be allowed to assign")
	}
}

func TestCanDirectUnassign(t *testing.T) {
	resource := heldBy("alice")

	if !CanDirectUnassign(admin, resource) {
		t.Error("admin should be allowed to unassign")
	}
	if !CanDirectUnassign(alice, resource) {
		t.Error("holder should be allowed to return their own resource")
	}
	if CanDirectUnassign(bob, resource) {
		t.Error("non-holder should not be allowed to unassign")
	}
	if CanDirectUnassign(alice, &model.Resource{ID: 2}) {
		t.Error("nobody but admin may unassign a free resource")
	}
}

func TestCanCreateTransfer(t *testing.T) {
	resource := heldBy("alice")

	if !CanCreateTransfer(alice, resource) {
		t.Error("holder should be allowed to open a transfer")
	}
	if !CanCreateTransfer(admin, resource) {
		t.Error("admin should be allowed to open a transfer on the holder's behalf")
	}
	if CanCreateTransfer(bob, resource) {
		t.Error("non-holder should not be allowed to open a transfer")
	}
}

func TestCanApproveRejectCancel(t *testing.T) {
	request := &model.TransferRequest{ID: 1, FromActor: "alice", ToActor: "bob", Status: model.StatusPending}

	if !CanApprove(bob, request) {
		t.Error("recipient should be allowed to approve")
	}
	if !CanApprove(admin, request) {
		t.Error("admin should be allowed to approve")
	}
	if CanApprove(alice, request) || CanApprove(carol, request) {
		t.Error("only the recipient or admin may approve")
	}

	if !CanReject(bob, request) {
		t.Error("recipient should be allowed to decline")
	}
	if CanReject(carol, request) {
		t.Error("third party should not be allowed to reject")
	}

	if !CanCancel(alice, request) {
		t.Error("source actor should be allowed to cancel")
	}
	if !CanCancel(admin, request) {
		t.Error("admin should be allowed to cancel")
	}
	if CanCancel(bob, request) || CanCancel(carol, request) {
		t.Error("only the source actor or admin may cancel")
	}
}

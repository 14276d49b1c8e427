package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jvidmar/kljucar/internal/db"
	"github.com/jvidmar/kljucar/internal/model"
)

func TestCreateResource(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, err := CreateResource(ctx, database, "K-101", "Main Building", "101", "Front door key")
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if res.ID == 0 {
		t.Error("expected non-zero id")
	}
	if res.Code != "K-101" {
		t.Errorf("expected code K-101, got %q", res.Code)
	}
	if res.Held() {
		t.Error("new resource should be unassigned")
	}
}

func TestCreateResourceDuplicateCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateResource(ctx, database, "K-101", "", "", ""); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	_, err := CreateResource(ctx, database, "K-101", "Annex", "7", "")
	if !errors.Is(err, model.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestGetResourceNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetResource(context.Background(), database, 999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListResourcesFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateResource(ctx, database, "K-101", "", "", "")
	b, _ := CreateResource(ctx, database, "K-102", "", "", "")
	CreateResource(ctx, database, "K-103", "", "", "")

	if _, err := AssignResource(ctx, database, a.ID, "alice", "admin", ""); err != nil {
		t.Fatalf("AssignResource: %v", err)
	}
	if _, err := AssignResource(ctx, database, b.ID, "bob", "admin", ""); err != nil {
		t.Fatalf("AssignResource: %v", err)
	}

	all, err := ListResources(ctx, database, "", false)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 resources, got %d", len(all))
	}

	alices, _ := ListResources(ctx, database, "alice", false)
	if len(alices) != 1 || alices[0].Code != "K-101" {
		t.Errorf("expected only K-101 for alice, got %v", alices)
	}

	free, _ := ListResources(ctx, database, "", true)
	if len(free) != 1 || free[0].Code != "K-103" {
		t.Errorf("expected only K-103 unassigned, got %v", free)
	}
}

func TestDeleteResourceHeldRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, _ := CreateResource(ctx, database, "K-101", "", "", "")
	AssignResource(ctx, database, res.ID, "alice", "admin", "")

	err := DeleteResource(ctx, database, res.ID)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict deleting held resource, got %v", err)
	}
}

func TestDeleteResourcePendingRequestRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, _ := CreateResource(ctx, database, "K-101", "", "", "")
	AssignResource(ctx, database, res.ID, "alice", "admin", "")
	if _, err := CreateTransferRequest(ctx, database, res.ID, "alice", "bob", "", "alice"); err != nil {
		t.Fatalf("CreateTransferRequest: %v", err)
	}
	UnassignResource(ctx, database, res.ID, "admin", "", nil)

	err := DeleteResource(ctx, database, res.ID)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict deleting resource with pending request, got %v", err)
	}
}

func TestDeleteResourceKeepsHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, _ := CreateResource(ctx, database, "K-101", "", "", "")
	AssignResource(ctx, database, res.ID, "alice", "admin", "")
	UnassignResource(ctx, database, res.ID, "admin", "returned", nil)

	if err := DeleteResource(ctx, database, res.ID); err != nil {
		t.Fatalf("DeleteResource: %v", err)
	}

	// History survives deletion even though the resource row is gone.
	events, err := ActorHistory(ctx, database, "alice")
	if err != nil {
		t.Fatalf("ActorHistory: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events after deletion, got %d", len(events))
	}
}

func TestResourcePhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, _ := CreateResource(ctx, database, "K-101", "", "", "")

	// No photo yet.
	photo, _, err := GetResourcePhoto(ctx, database, res.ID)
	if err != nil {
		t.Fatalf("GetResourcePhoto: %v", err)
	}
	if len(photo) != 0 {
		t.Errorf("expected no photo, got %d bytes", len(photo))
	}

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := SetResourcePhoto(ctx, database, res.ID, data, "image/jpeg"); err != nil {
		t.Fatalf("SetResourcePhoto: %v", err)
	}

	photo, mime, err := GetResourcePhoto(ctx, database, res.ID)
	if err != nil {
		t.Fatalf("GetResourcePhoto: %v", err)
	}
	if mime != "image/jpeg" || len(photo) != len(data) {
		t.Errorf("expected jpeg photo back, got %q with %d bytes", mime, len(photo))
	}
}

package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestResourceHeldBy(t *testing.T) {
	alice := "alice"
	r := &Resource{HolderID: &alice}

	if !r.Held() {
		t.Error("expected resource to be held")
	}
	if !r.HeldBy("alice") {
		t.Error("expected resource to be held by alice")
	}
	if r.HeldBy("bob") {
		t.Error("did not expect resource to be held by bob")
	}

	free := &Resource{}
	if free.Held() || free.HeldBy("alice") {
		t.Error("unassigned resource should have no holder")
	}
}

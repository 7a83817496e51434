package mystere

import (
	"testing"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()

	s, err := r.Create("msg1", 100, 1, 6)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.ID != "msg1" {
		t.Errorf("Expected session ID msg1, got %s", s.ID)
	}

	got, ok := r.Get("msg1")
	if !ok || got != s {
		t.Error("Expected Get to return the created session")
	}
	if _, ok := r.Get("other"); ok {
		t.Error("Expected Get to miss for an unknown ID")
	}
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("msg1", 100, 1, 6); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := r.Create("msg1", 200, 2, 6); err == nil {
		t.Error("Expected duplicate Create to fail")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", r.Len())
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("msg1", 100, 1, 6); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r.Remove("msg1")
	r.Remove("msg1")
	r.Remove("never-existed")

	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d sessions", r.Len())
	}
}

func TestRegistryUserBusy(t *testing.T) {
	r := NewRegistry()
	s1, err := r.Create("msg1", 100, 1, 6)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := r.Create("msg2", 100, 2, 6); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mustJoin(t, s1, 7, 3)
	if !r.UserBusy(7) {
		t.Error("Expected user 7 to be busy")
	}
	if r.UserBusy(8) {
		t.Error("Expected user 8 to be free")
	}

	if err := s1.Apply(Leave{UserID: 7}); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if r.UserBusy(7) {
		t.Error("Expected user 7 to be free after leaving")
	}
}

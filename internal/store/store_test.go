package store

import (
	"path/filepath"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLookupUnknown(t *testing.T) {
	s := openTestStore(t)

	u, err := s.Lookup("12345")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if u.Ckey != nil || u.RoleLevel != nil {
		t.Errorf("expected empty record for unknown id, got %+v", u)
	}
}

func TestUpsertMerge(t *testing.T) {
	s := openTestStore(t)

	// Link first, then a role-only update must not erase the ckey.
	if err := s.Upsert("1", strPtr("alice"), nil); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := s.Upsert("1", nil, intPtr(10)); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	u, err := s.Lookup("1")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if u.Ckey == nil || *u.Ckey != "alice" {
		t.Errorf("expected ckey alice, got %v", u.Ckey)
	}
	if u.RoleLevel == nil || *u.RoleLevel != 10 {
		t.Errorf("expected role level 10, got %v", u.RoleLevel)
	}

	// And the other direction: a ckey-only update keeps the level.
	if err := s.Upsert("1", strPtr("alice2"), nil); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	u, _ = s.Lookup("1")
	if u.Ckey == nil || *u.Ckey != "alice2" {
		t.Errorf("expected ckey alice2, got %v", u.Ckey)
	}
	if u.RoleLevel == nil || *u.RoleLevel != 10 {
		t.Errorf("expected role level 10 preserved, got %v", u.RoleLevel)
	}
}

func TestUpsertRoleOnlyRecord(t *testing.T) {
	s := openTestStore(t)

	// A member can have a role level before ever linking a ckey.
	if err := s.Upsert("2", nil, intPtr(5)); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	u, err := s.Lookup("2")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if u.Ckey != nil {
		t.Errorf("expected nil ckey, got %v", *u.Ckey)
	}
	if u.RoleLevel == nil || *u.RoleLevel != 5 {
		t.Errorf("expected role level 5, got %v", u.RoleLevel)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Upsert("3", strPtr("bob"), intPtr(20)); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}
	u, _ := s.Lookup("3")
	if u.Ckey == nil || *u.Ckey != "bob" || u.RoleLevel == nil || *u.RoleLevel != 20 {
		t.Errorf("unexpected record after repeated upserts: %+v", u)
	}
}

func TestListDonors(t *testing.T) {
	s := openTestStore(t)

	s.Upsert("1", strPtr("alice"), intPtr(10))
	s.Upsert("2", strPtr("bob"), intPtr(0))
	s.Upsert("3", nil, intPtr(5))
	s.Upsert("4", strPtr("carol"), nil)

	donors, err := s.ListDonors()
	if err != nil {
		t.Fatalf("ListDonors() error: %v", err)
	}
	if len(donors) != 2 {
		t.Fatalf("expected 2 donors, got %d: %+v", len(donors), donors)
	}
	seen := map[string]bool{}
	for _, u := range donors {
		seen[u.DiscordID] = true
	}
	if !seen["1"] || !seen["3"] {
		t.Errorf("expected donors 1 and 3, got %+v", donors)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Upsert("1", strPtr("alice"), intPtr(10)); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	s.Close()

	// Second open runs schema creation again against existing data.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	u, err := s.Lookup("1")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if u.Ckey == nil || *u.Ckey != "alice" {
		t.Errorf("data lost across reopen: %+v", u)
	}
}

package store

import (
	"testing"

	"github.com/clubm8/clubm8api/internal/fixture"
)

func setupUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(setupTestDB(t))
}

func TestUserCreate(t *testing.T) {
	us := setupUserStore(t)

	u, err := us.Create("alice", "Alice", "Smith", "alice@example.com", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("username = %q, want %q", u.Username, "alice")
	}
	if u.FullName() != "Alice Smith" {
		t.Errorf("full name = %q, want %q", u.FullName(), "Alice Smith")
	}
	if !u.IsActive {
		t.Error("new users should be active")
	}
	if u.IsSuperuser {
		t.Error("new user should not be superuser")
	}
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	us := setupUserStore(t)

	if _, err := us.Create("alice", "", "", "", false); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("alice", "", "", "", false); err == nil {
		t.Fatal("expected error for duplicate username, got nil")
	}
}

func TestUserGrantRevoke(t *testing.T) {
	us := setupUserStore(t)

	u, _ := us.Create("alice", "", "", "", false)
	if err := us.Grant(u.ID, "add_slot", "change_slot", "add_slot"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	u, _ = us.GetByID(u.ID)
	if !u.HasPerm("add_slot") || !u.HasPerm("change_slot") {
		t.Errorf("permissions = %v", u.Permissions)
	}
	if u.HasPerm("delete_slot") {
		t.Error("should not hold delete_slot")
	}

	if err := us.Revoke(u.ID, "add_slot"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	u, _ = us.GetByID(u.ID)
	if u.HasPerm("add_slot") {
		t.Error("add_slot should be revoked")
	}
}

func TestUserAPIKey(t *testing.T) {
	us := setupUserStore(t)

	u, _ := us.Create("alice", "", "", "", false)
	key, err := us.IssueAPIKey(u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(key) != 40 {
		t.Errorf("key length = %d, want 40", len(key))
	}

	got, err := us.VerifyAPIKey("alice", key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("verify = %+v, want user %d", got, u.ID)
	}

	if got, _ := us.VerifyAPIKey("alice", "wrong"); got != nil {
		t.Error("wrong key should not verify")
	}
	if got, _ := us.VerifyAPIKey("bob", key); got != nil {
		t.Error("unknown user should not verify")
	}

	// Reissuing invalidates the old key.
	newKey, err := us.IssueAPIKey(u.ID)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if got, _ := us.VerifyAPIKey("alice", key); got != nil {
		t.Error("old key should no longer verify")
	}
	if got, _ := us.VerifyAPIKey("alice", newKey); got == nil {
		t.Error("new key should verify")
	}
}

func TestUserAPIKeyInactive(t *testing.T) {
	us := NewUserStore(setupTestDB(t, "test_user"))

	if err := us.SetActive(2, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got, _ := us.VerifyAPIKey("reader", "0123456789abcdef0123456789abcdef01234567"); got != nil {
		t.Error("inactive user should not verify")
	}
}

func TestUserFixturePermissions(t *testing.T) {
	us := NewUserStore(setupTestDB(t, fixture.Default...))

	editor, err := us.GetByUsername("editor")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !editor.HasPerm("change_news") || editor.HasPerm("delete_news") {
		t.Errorf("editor permissions = %v", editor.Permissions)
	}
	test, _ := us.GetByUsername("test")
	if !test.HasPerm("delete_tag") {
		t.Error("superuser should hold every permission")
	}
}

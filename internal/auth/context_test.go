package auth

import (
	"context"
	"net/http"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:      1,
		Username:    "test",
		IsSuperuser: true,
		Permissions: []string{"add_slot"},
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.UserID != 1 {
		t.Errorf("UserID = %d, want 1", got.UserID)
	}
	if got.Username != "test" {
		t.Errorf("Username = %q, want %q", got.Username, "test")
	}
	if !got.IsSuperuser {
		t.Error("IsSuperuser = false, want true")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 7})
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestHasPerm(t *testing.T) {
	editor := AuthContext{Permissions: []string{"add_slot", "change_slot"}}
	if !editor.HasPerm("change_slot") {
		t.Error("expected change_slot")
	}
	if editor.HasPerm("delete_slot") {
		t.Error("unexpected delete_slot")
	}

	admin := AuthContext{IsSuperuser: true}
	if !admin.HasPerm("delete_news") {
		t.Error("superuser should hold every permission")
	}
}

func TestCodename(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodPost, "add_slot"},
		{http.MethodPut, "change_slot"},
		{http.MethodPatch, "change_slot"},
		{http.MethodDelete, "delete_slot"},
		{http.MethodGet, ""},
	}
	for _, tt := range tests {
		if got := Codename(tt.method, "slot"); got != tt.want {
			t.Errorf("Codename(%s) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestIsSafe(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		if !IsSafe(m) {
			t.Errorf("IsSafe(%s) = false", m)
		}
	}
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if IsSafe(m) {
			t.Errorf("IsSafe(%s) = true", m)
		}
	}
}

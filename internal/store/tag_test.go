package store

import (
	"testing"

	"github.com/clubm8/clubm8api/internal/filter"
)

func TestTagCRUD(t *testing.T) {
	s := NewTagStore(setupTestDB(t))

	tag, err := s.Create("Techno")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tag.Name != "Techno" || tag.ID == 0 {
		t.Errorf("created = %+v", tag)
	}

	tag, err = s.Update(tag.ID, "Minimal")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if tag.Name != "Minimal" {
		t.Errorf("name = %q, want %q", tag.Name, "Minimal")
	}

	if _, err := s.Create("House"); err != nil {
		t.Fatalf("create: %v", err)
	}
	tags, total, err := s.List(filter.Page{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(tags) != 1 {
		t.Errorf("list = %+v (total %d), want 1 of 2", tags, total)
	}

	if err := s.Delete(tag.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetByID(tag.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestTagGetByIDNotFound(t *testing.T) {
	s := NewTagStore(setupTestDB(t))

	got, err := s.GetByID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent tag")
	}
}

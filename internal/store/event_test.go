package store

import (
	"net/url"
	"testing"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/google/go-cmp/cmp"
)

func TestEventListByTags(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewEventStore(db)

	f, err := filter.ParseEvent(url.Values{"tags": {"1"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	events, total, err := s.List(f, allRows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(events) != 2 || events[0].ID != 1 || events[1].ID != 3 {
		t.Fatalf("events = %+v, want ids 1 and 3", events)
	}
	if diff := cmp.Diff([]int64{1, 3}, events[1].TagIDs); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestEventCRUD(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewEventStore(db)

	e, err := s.Create("Release Party", []int64{2, 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Title != "Release Party" {
		t.Errorf("title = %q, want %q", e.Title, "Release Party")
	}
	if diff := cmp.Diff([]int64{2, 3}, e.TagIDs); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	e, err = s.Update(e.ID, "Release Night", nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if e.Title != "Release Night" || len(e.TagIDs) != 0 {
		t.Errorf("updated = %+v", e)
	}

	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetByID(e.ID); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestEventDeleteCascadesOccurrences(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	events := NewEventStore(db)
	occ := NewOccurrenceStore(db)
	special := NewSpecialOccurrenceStore(db)

	if err := events.Delete(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, total, err := occ.List(filter.Occurrence{}, allRows)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	if total != 2 {
		t.Errorf("occurrences = %d, want 2", total)
	}
	_, total, err = special.List(filter.Occurrence{}, allRows)
	if err != nil {
		t.Fatalf("list specials: %v", err)
	}
	if total != 0 {
		t.Errorf("special occurrences = %d, want 0", total)
	}
}

func TestTitlesForPlan(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewEventStore(db)

	titles, err := s.TitlesForPlan(3)
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	if diff := cmp.Diff([]string{"Open Air", "Jam Session"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

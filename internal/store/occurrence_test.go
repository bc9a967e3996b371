package store

import (
	"testing"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/google/go-cmp/cmp"
)

func TestOccurrenceFilterByEvent(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewOccurrenceStore(db)

	if _, err := s.Create(3); err != nil {
		t.Fatalf("create: %v", err)
	}
	items, total, err := s.List(filter.Occurrence{EventID: 3, HasEventID: true}, allRows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("occurrences = %+v (total %d), want 2", items, total)
	}
	for _, o := range items {
		if o.EventID != 3 {
			t.Errorf("event_id = %d, want 3", o.EventID)
		}
	}
}

func TestSpecialOccurrenceIsSeparateTable(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	occ := NewOccurrenceStore(db)
	special := NewSpecialOccurrenceStore(db)

	o, err := special.Create(1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID != 2 {
		t.Errorf("id = %d, want 2", o.ID)
	}
	_, total, err := occ.List(filter.Occurrence{}, allRows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("occurrences = %d, want 3", total)
	}

	o, err = special.Update(o.ID, 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if o.EventID != 3 {
		t.Errorf("event_id = %d, want 3", o.EventID)
	}
}

func TestOccurrenceMissing(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewOccurrenceStore(db)

	missing, err := s.Missing([]int64{1, 7, 3, 9})
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if diff := cmp.Diff([]int64{7, 9}, missing); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

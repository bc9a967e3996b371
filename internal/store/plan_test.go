package store

import (
	"errors"
	"net/url"
	"testing"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/google/go-cmp/cmp"
)

func TestPlanListByTags(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewPlanStore(db)

	tests := []struct {
		tags string
		want []int64
	}{
		{"1", []int64{1, 3}},
		{"2", []int64{2, 3}},
		{"3", []int64{3}},
		{"1,2", []int64{1, 2, 3}},
		{"42", nil},
	}
	for _, tt := range tests {
		f, err := filter.ParsePlan(url.Values{"tags": {tt.tags}})
		if err != nil {
			t.Fatalf("parse %q: %v", tt.tags, err)
		}
		plans, total, err := s.List(f, allRows)
		if err != nil {
			t.Fatalf("list %q: %v", tt.tags, err)
		}
		var got []int64
		for _, p := range plans {
			got = append(got, p.ID)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("tags=%s mismatch (-want +got):\n%s", tt.tags, diff)
		}
		if total != len(tt.want) {
			t.Errorf("tags=%s total = %d, want %d", tt.tags, total, len(tt.want))
		}
	}
}

func TestPlanInvalidTags(t *testing.T) {
	if _, err := filter.ParsePlan(url.Values{"tags": {"invalid"}}); !errors.Is(err, filter.ErrInvalidTag) {
		t.Errorf("err = %v, want ErrInvalidTag", err)
	}
}

func TestPlanCRUD(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	s := NewPlanStore(db)

	p, err := s.Create([]int64{3, 1, 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 3}, p.OccurrenceIDs); diff != "" {
		t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
	}

	p, err = s.Update(p.ID, []int64{2})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff([]int64{2}, p.OccurrenceIDs); diff != "" {
		t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.GetByID(p.ID); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestPlanDeleteCascadesSlots(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	plans := NewPlanStore(db)
	slots := NewSlotStore(db, nil)

	if err := plans.Delete(1); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	_, total, err := slots.List(filter.Slot{}, allRows)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if total != 5 {
		t.Errorf("slots = %d, want 5 after deleting plan 1", total)
	}
}

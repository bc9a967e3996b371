package store

import (
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/clubm8/clubm8api/internal/database"
	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/google/go-cmp/cmp"
)

var allRows = filter.Page{}

func setupTestDB(t *testing.T, fixtures ...string) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if len(fixtures) > 0 {
		if _, err := fixture.Load(db, fixtures...); err != nil {
			t.Fatalf("load fixtures: %v", err)
		}
	}
	return db
}

func setupSlotStore(t *testing.T) *SlotStore {
	t.Helper()
	db := setupTestDB(t, fixture.Default...)
	return NewSlotStore(db, time.UTC)
}

func slotIDs(slots []model.Slot) []int64 {
	ids := make([]int64, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

func TestSlotListFilters(t *testing.T) {
	s := setupSlotStore(t)

	tests := []struct {
		name  string
		query url.Values
		want  []int64
	}{
		{"no filter", url.Values{}, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"from before first", url.Values{"from": {"2015-01-01"}}, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"from near end", url.Values{"from": {"2016-10-30"}}, []int64{8}},
		{"to after last", url.Values{"to": {"2017-01-01"}}, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"to first day inclusive", url.Values{"to": {"2016-08-29"}}, []int64{1}},
		{"from and to", url.Values{"from": {"2016-09-12"}, "to": {"2016-10-23"}}, []int64{3, 4, 5, 6, 7}},
		{"swapped bounds", url.Values{"to": {"2016-09-12"}, "from": {"2016-10-23"}}, nil},
		{"all tags", url.Values{"tags": {"1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25"}}, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"tag 1", url.Values{"tags": {"1"}}, []int64{1, 2, 3, 5, 6, 8}},
		{"tag 2", url.Values{"tags": {"2"}}, []int64{2, 4, 5, 7, 8}},
		{"unknown tag", url.Values{"tags": {"99"}}, nil},
		{"tag and from", url.Values{"tags": {"1"}, "from": {"2016-09-30"}}, []int64{6, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := filter.ParseSlot(tt.query)
			if err != nil {
				t.Fatalf("parse filter: %v", err)
			}
			slots, total, err := s.List(f, allRows)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			got := slotIDs(slots)
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("slot ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlotListPagination(t *testing.T) {
	s := setupSlotStore(t)

	slots, total, err := s.List(filter.Slot{}, filter.Page{Limit: 3, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
	if diff := cmp.Diff([]int64{3, 4, 5}, slotIDs(slots)); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotCurrentWeek(t *testing.T) {
	s := setupSlotStore(t)

	// Wednesday of the week starting 2016-09-12.
	now := time.Date(2016, 9, 14, 11, 0, 0, 0, time.UTC)
	got, err := s.CurrentWeek(now)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if got == nil || got.ID != 3 {
		t.Fatalf("current slot = %+v, want slot 3", got)
	}
}

func TestSlotCurrentWeekNone(t *testing.T) {
	s := setupSlotStore(t)

	got, err := s.CurrentWeek(time.Date(2016, 10, 19, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if got != nil {
		t.Errorf("current slot = %+v, want none", got)
	}
}

func TestSlotCurrentWeekAmbiguous(t *testing.T) {
	s := setupSlotStore(t)

	if _, err := s.Create(2, time.Date(2016, 9, 12, 23, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	_, err := s.CurrentWeek(time.Date(2016, 9, 18, 22, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrMultipleObjects) {
		t.Errorf("err = %v, want ErrMultipleObjects", err)
	}
}

func TestSlotCurrentWeekOnlyMatchesMonday(t *testing.T) {
	s := setupSlotStore(t)

	// A slot later in the same week is not the week's slot.
	if _, err := s.Create(1, time.Date(2016, 10, 19, 20, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	got, err := s.CurrentWeek(time.Date(2016, 10, 20, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if got != nil {
		t.Errorf("current slot = %+v, want none", got)
	}
}

func TestSlotTimezoneShiftsCalendarDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	db := setupTestDB(t, fixture.Default...)
	s := NewSlotStore(db, berlin)

	// 2016-08-29 20:00 UTC is 22:00 in Berlin, still the 29th.
	f, _ := filter.ParseSlot(url.Values{"to": {"2016-08-29"}})
	slots, _, err := s.List(f, allRows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]int64{1}, slotIDs(slots)); diff != "" {
		t.Errorf("slot ids mismatch (-want +got):\n%s", diff)
	}

	// 23:30 UTC on the 4th is already the 5th in Berlin.
	late, err := s.Create(1, time.Date(2016, 9, 4, 23, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	f, _ = filter.ParseSlot(url.Values{"from": {"2016-09-05"}, "to": {"2016-09-05"}})
	slots, _, err = s.List(f, allRows)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]int64{late.ID, 2}, slotIDs(slots)); diff != "" {
		t.Errorf("slot ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotCRUD(t *testing.T) {
	s := setupSlotStore(t)

	start := time.Date(2016, 11, 7, 20, 0, 0, 0, time.UTC)
	created, err := s.Create(2, start)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PlanID != 2 || !created.Start.Equal(start) {
		t.Errorf("created = %+v", created)
	}

	moved := start.Add(time.Hour)
	updated, err := s.Update(created.ID, 3, moved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PlanID != 3 || !updated.Start.Equal(moved) {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSlotCreateMany(t *testing.T) {
	s := setupSlotStore(t)

	starts := []time.Time{
		time.Date(2016, 11, 7, 20, 0, 0, 0, time.UTC),
		time.Date(2016, 11, 14, 20, 0, 0, 0, time.UTC),
	}
	ids, err := s.CreateMany(2, starts)
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if diff := cmp.Diff([]int64{9, 10}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	got, err := s.GetByID(10)
	if err != nil || got == nil {
		t.Fatalf("GetByID(10) = %v, %v", got, err)
	}
	if got.PlanID != 2 || !got.Start.Equal(starts[1]) {
		t.Errorf("slot 10 = %+v, want plan 2 at %v", got, starts[1])
	}
}

func TestSlotCreateManyRollsBack(t *testing.T) {
	s := setupSlotStore(t)

	_, err := s.CreateMany(99, []time.Time{time.Date(2016, 11, 7, 20, 0, 0, 0, time.UTC)})
	if err == nil {
		t.Fatal("CreateMany with unknown plan succeeded")
	}
	_, total, err := s.List(filter.Slot{}, allRows)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
}

func TestInvertedRangeSkipsQuery(t *testing.T) {
	db := setupTestDB(t)
	slots := NewSlotStore(db, time.UTC)
	news := NewNewsStore(db)
	db.Close()

	sf, err := filter.ParseSlot(url.Values{"from": {"2016-10-23"}, "to": {"2016-09-12"}})
	if err != nil {
		t.Fatalf("ParseSlot: %v", err)
	}
	got, total, err := slots.List(sf, allRows)
	if err != nil || total != 0 || len(got) != 0 {
		t.Errorf("slots.List = %v, %d, %v, want empty without error", got, total, err)
	}
	if one, err := slots.FindOne(sf); err != nil || one != nil {
		t.Errorf("FindOne = %v, %v, want nil, nil", one, err)
	}

	nf, err := filter.ParseNews(url.Values{"since": {"2016-09-16"}, "until": {"2016-08-03"}})
	if err != nil {
		t.Fatalf("ParseNews: %v", err)
	}
	items, total, err := news.List(nf, allRows)
	if err != nil || total != 0 || len(items) != 0 {
		t.Errorf("news.List = %v, %d, %v, want empty without error", items, total, err)
	}
}

package store

import (
	"net/url"
	"testing"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/clubm8/clubm8api/internal/model"
)

func setupNewsStore(t *testing.T) *NewsStore {
	t.Helper()
	return NewNewsStore(setupTestDB(t, fixture.Default...))
}

func newsDates(items []model.News) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.Date.Format(filter.DateLayout)
	}
	return out
}

func TestNewsListFilters(t *testing.T) {
	s := setupNewsStore(t)

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{"all", url.Values{}, []string{"2016-09-17", "2016-08-15", "2016-08-02"}},
		{"since before first", url.Values{"since": {"2015-01-01"}}, []string{"2016-09-17", "2016-08-15", "2016-08-02"}},
		{"since after first", url.Values{"since": {"2016-08-03"}}, []string{"2016-09-17", "2016-08-15"}},
		{"since after last", url.Values{"since": {"2017-01-01"}}, []string{}},
		{"until after last", url.Values{"until": {"2017-01-01"}}, []string{"2016-09-17", "2016-08-15", "2016-08-02"}},
		{"until before last", url.Values{"until": {"2016-09-16"}}, []string{"2016-08-15", "2016-08-02"}},
		{"until before first", url.Values{"until": {"2015-01-01"}}, []string{}},
		{"since until middle", url.Values{"since": {"2016-08-03"}, "until": {"2016-09-16"}}, []string{"2016-08-15"}},
		{"single day inclusive", url.Values{"since": {"2016-08-15"}, "until": {"2016-08-15"}}, []string{"2016-08-15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := filter.ParseNews(tt.query)
			if err != nil {
				t.Fatalf("parse filter: %v", err)
			}
			items, total, err := s.List(f, allRows)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			got := newsDates(items)
			if len(got) != len(tt.want) {
				t.Fatalf("dates = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("dates[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewsAuthorName(t *testing.T) {
	s := setupNewsStore(t)

	withAuthor, err := s.GetByID(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if withAuthor.AuthorName != "Test User" {
		t.Errorf("author = %q, want %q", withAuthor.AuthorName, "Test User")
	}
	if withAuthor.Time != "18:30:00" {
		t.Errorf("time = %q, want %q", withAuthor.Time, "18:30:00")
	}

	without, err := s.GetByID(2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if without.AuthorID != nil || without.AuthorName != "" {
		t.Errorf("author = %v %q, want none", without.AuthorID, without.AuthorName)
	}
}

func TestNewsCRUD(t *testing.T) {
	s := setupNewsStore(t)

	author := int64(1)
	date := time.Date(2016, 12, 24, 0, 0, 0, 0, time.UTC)
	n, err := s.Create("Xmas party", "Come along.", &author, date, "20:00:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !n.Date.Equal(date) || n.Time != "20:00:00" || n.AuthorName != "Test User" {
		t.Errorf("created = %+v", n)
	}

	n, err = s.Update(n.ID, "Xmas party!", "Come along.", nil, date, "21:00:00")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n.Title != "Xmas party!" || n.AuthorID != nil || n.Time != "21:00:00" {
		t.Errorf("updated = %+v", n)
	}

	if err := s.Delete(n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetByID(n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestNewsAuthorDeletedKeepsNews(t *testing.T) {
	db := setupTestDB(t, fixture.Default...)
	users := NewUserStore(db)
	news := NewNewsStore(db)

	if err := users.Delete(1); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	n, err := news.GetByID(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n == nil {
		t.Fatal("news should survive author deletion")
	}
	if n.AuthorID != nil {
		t.Errorf("author_id = %v, want nil", *n.AuthorID)
	}
}

package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"json number", json.Number("3"), 3, false},
		{"int", 4, 4, false},
		{"float", float64(5), 5, false},
		{"numeric string", " 6 ", 6, false},
		{"uri", "/api/v1/plan/7/", 7, false},
		{"uri without slash", "/api/v1/plan/8", 8, false},
		{"absolute uri", "http://club.example/api/v1/plan/9/", 9, false},
		{"other resource", "/api/v1/slot/3/", 0, true},
		{"zero", json.Number("0"), 0, true},
		{"fraction", 1.5, 0, true},
		{"negative", -2, 0, true},
		{"garbage", "plan three", 0, true},
		{"bool", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRef(tt.in, "plan")
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseRef(%v) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRef(%v): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseRef(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestBodyRefs(t *testing.T) {
	b := body{"tags": []any{"/api/v1/tag/1/", json.Number("3")}, "none": nil, "bad": "1"}

	ids, err := b.refs("tags", "tag")
	if err != nil {
		t.Fatalf("refs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("refs = %v, want [1 3]", ids)
	}
	if ids, err := b.refs("none", "tag"); err != nil || ids != nil {
		t.Errorf("refs(null) = %v, %v, want nil, nil", ids, err)
	}
	if _, err := b.refs("bad", "tag"); err == nil {
		t.Error("refs on a string succeeded")
	}
	if _, err := b.ref("missing", "plan"); err == nil {
		t.Error("ref on a missing field succeeded")
	}
}

func TestListMeta(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/slot/?tags=1&limit=2&offset=2", nil)
	m := listMeta(r, filter.Page{Limit: 2, Offset: 2}, 5)

	if m.TotalCount != 5 || m.Limit != 2 || m.Offset != 2 {
		t.Errorf("meta = %+v", m)
	}
	if m.Next == nil || *m.Next != "/api/v1/slot/?limit=2&offset=4&tags=1" {
		t.Errorf("next = %v, want /api/v1/slot/?limit=2&offset=4&tags=1", m.Next)
	}
	if m.Previous == nil || *m.Previous != "/api/v1/slot/?limit=2&offset=0&tags=1" {
		t.Errorf("previous = %v, want /api/v1/slot/?limit=2&offset=0&tags=1", m.Previous)
	}

	last := listMeta(r, filter.Page{Limit: 2, Offset: 4}, 5)
	if last.Next != nil {
		t.Errorf("next on last page = %q, want nil", *last.Next)
	}

	first := listMeta(httptest.NewRequest("GET", "/api/v1/slot/", nil), filter.Page{Limit: 20}, 5)
	if first.Next != nil || first.Previous != nil {
		t.Errorf("single page meta = %+v, want no links", first)
	}
}

func TestParseStart(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	want := time.Date(2016, 9, 12, 20, 0, 0, 0, loc)

	for _, in := range []string{
		"2016-09-12T20:00:00+02:00",
		"2016-09-12T18:00:00Z",
		"2016-09-12T20:00:00",
		"2016-09-12 20:00:00",
		"2016-09-12 20:00",
	} {
		got, err := parseStart(in, loc)
		if err != nil {
			t.Errorf("parseStart(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseStart(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseStart("12.09.2016", loc); err == nil {
		t.Error("parseStart accepted 12.09.2016")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"20:00", "20:00:00"},
		{"08:15:30", "08:15:30"},
		{" 9:05 ", "09:05:00"},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.in)
		if err != nil {
			t.Errorf("parseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseClock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := parseClock("25:00"); err == nil {
		t.Error("parseClock accepted 25:00")
	}
}

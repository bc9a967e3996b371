package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
)

// ErrMultipleObjects is returned by single-object lookups that match more
// than one row.
var ErrMultipleObjects = errors.New("more than one object found")

// Stores bundles every store over one database.
type Stores struct {
	Tags        *TagStore
	Events      *EventStore
	Occurrences *OccurrenceStore
	Specials    *OccurrenceStore
	Plans       *PlanStore
	Slots       *SlotStore
	News        *NewsStore
	Users       *UserStore
}

// New creates all stores. loc is the zone calendar-date filters on
// timestamp columns are evaluated in.
func New(db *sql.DB, loc *time.Location) *Stores {
	return &Stores{
		Tags:        NewTagStore(db),
		Events:      NewEventStore(db),
		Occurrences: NewOccurrenceStore(db),
		Specials:    NewSpecialOccurrenceStore(db),
		Plans:       NewPlanStore(db),
		Slots:       NewSlotStore(db, loc),
		News:        NewNewsStore(db),
		Users:       NewUserStore(db),
	}
}

// where accumulates AND-ed predicates and their arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) and(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// tagsIn appends "col IN (?, ...)" for ids. An empty set matches nothing.
func (w *where) tagsIn(col string, ids []int64) string {
	if len(ids) == 0 {
		return "1 = 0"
	}
	marks := make([]string, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		w.args = append(w.args, id)
	}
	return col + " IN (" + strings.Join(marks, ", ") + ")"
}

// existsTag appends an EXISTS predicate over a join path ending in
// event_tags. from is the FROM/JOIN chain and link ties it to the outer row.
func (w *where) existsTag(from, link string, ids []int64) {
	in := w.tagsIn("et.tag_id", ids)
	w.clauses = append(w.clauses, "EXISTS (SELECT 1 FROM "+from+" WHERE "+link+" AND "+in+")")
}

// dateInstants bounds a timestamp column by a calendar-date range.
func (w *where) dateInstants(col string, r filter.DateRange, loc *time.Location) {
	lo, hi := r.Instants(loc)
	if v, ok := lo.Get(); ok {
		w.and(col+" >= ?", v)
	}
	if v, ok := hi.Get(); ok {
		w.and(col+" < ?", v)
	}
}

// dateStrings bounds a text date column by a calendar-date range.
func (w *where) dateStrings(col string, r filter.DateRange) {
	lo, hi := r.Strings()
	if v, ok := lo.Get(); ok {
		w.and(col+" >= ?", v)
	}
	if v, ok := hi.Get(); ok {
		w.and(col+" <= ?", v)
	}
}

func limitOffset(p filter.Page) (string, []any) {
	limit := int64(p.Limit)
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return " LIMIT ? OFFSET ?", []any{limit, int64(p.Offset)}
}

func count(db *sql.DB, table string, w *where) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM `+table+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// linkIDs loads (owner, target) pairs from a join table for the given owners.
func linkIDs(db *sql.DB, table, ownerCol, targetCol string, owners []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(owners))
	if len(owners) == 0 {
		return out, nil
	}
	rows, err := db.Query(
		`SELECT `+ownerCol+`, `+targetCol+` FROM `+table+
			` WHERE `+ownerCol+` IN (`+placeholders(len(owners))+`) ORDER BY `+ownerCol+`, `+targetCol,
		int64Args(owners)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, target int64
		if err := rows.Scan(&owner, &target); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[owner] = append(out[owner], target)
	}
	return out, rows.Err()
}

// replaceLinks rewrites the join rows of one owner inside tx.
func replaceLinks(tx *sql.Tx, table, ownerCol, targetCol string, owner int64, targets []int64) error {
	if _, err := tx.Exec(`DELETE FROM `+table+` WHERE `+ownerCol+` = ?`, owner); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	seen := make(map[int64]struct{}, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, err := tx.Exec(`INSERT INTO `+table+` (`+ownerCol+`, `+targetCol+`) VALUES (?, ?)`, owner, t); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// existing returns which of ids are present in table.
func existing(db *sql.DB, table string, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := db.Query(`SELECT id FROM `+table+` WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// missing returns the ids from the list that have no row in table.
func missing(db *sql.DB, table string, ids []int64) ([]int64, error) {
	found, err := existing(db, table, ids)
	if err != nil {
		return nil, err
	}
	var out []int64
	for _, id := range ids {
		if !found[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

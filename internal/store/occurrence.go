package store

import (
	"database/sql"
	"fmt"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

// OccurrenceStore serves both regular and special occurrences; the two
// differ only in their table.
type OccurrenceStore struct {
	db    *sql.DB
	table string
}

func NewOccurrenceStore(db *sql.DB) *OccurrenceStore {
	return &OccurrenceStore{db: db, table: "occurrences"}
}

func NewSpecialOccurrenceStore(db *sql.DB) *OccurrenceStore {
	return &OccurrenceStore{db: db, table: "special_occurrences"}
}

func (s *OccurrenceStore) Create(eventID int64) (*model.Occurrence, error) {
	result, err := s.db.Exec(`INSERT INTO `+s.table+` (event_id) VALUES (?)`, eventID)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *OccurrenceStore) GetByID(id int64) (*model.Occurrence, error) {
	var o model.Occurrence
	err := s.db.QueryRow(`SELECT id, event_id FROM `+s.table+` WHERE id = ?`, id).Scan(&o.ID, &o.EventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	return &o, nil
}

func (s *OccurrenceStore) List(f filter.Occurrence, p filter.Page) ([]model.Occurrence, int, error) {
	var w where
	if f.HasEventID {
		w.and("event_id = ?", f.EventID)
	}
	total, err := count(s.db, s.table, &w)
	if err != nil {
		return nil, 0, err
	}

	lim, limArgs := limitOffset(p)
	rows, err := s.db.Query(
		`SELECT id, event_id FROM `+s.table+w.String()+` ORDER BY id`+lim,
		append(w.args, limArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []model.Occurrence
	for rows.Next() {
		var o model.Occurrence
		if err := rows.Scan(&o.ID, &o.EventID); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (s *OccurrenceStore) Update(id, eventID int64) (*model.Occurrence, error) {
	if _, err := s.db.Exec(`UPDATE `+s.table+` SET event_id = ? WHERE id = ?`, eventID, id); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.table, err)
	}
	return s.GetByID(id)
}

func (s *OccurrenceStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM `+s.table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	return nil
}

// Missing returns the ids that name no row of this store.
func (s *OccurrenceStore) Missing(ids []int64) ([]int64, error) {
	return missing(s.db, s.table, ids)
}

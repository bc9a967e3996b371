package store

import (
	"database/sql"
	"fmt"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func eventWhere(f filter.Event) *where {
	w := &where{}
	if f.HasTags {
		w.existsTag("event_tags et", "et.event_id = events.id", f.Tags)
	}
	return w
}

func (s *EventStore) Create(title string, tagIDs []int64) (*model.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO events (title) VALUES (?)`, title)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := replaceLinks(tx, "event_tags", "event_id", "tag_id", id, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	var e model.Event
	err := s.db.QueryRow(`SELECT id, title FROM events WHERE id = ?`, id).Scan(&e.ID, &e.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}

	links, err := linkIDs(s.db, "event_tags", "event_id", "tag_id", []int64{id})
	if err != nil {
		return nil, err
	}
	e.TagIDs = links[id]
	return &e, nil
}

// List returns one page of events matching f and the total match count.
func (s *EventStore) List(f filter.Event, p filter.Page) ([]model.Event, int, error) {
	w := eventWhere(f)
	total, err := count(s.db, "events", w)
	if err != nil {
		return nil, 0, err
	}

	lim, limArgs := limitOffset(p)
	rows, err := s.db.Query(
		`SELECT id, title FROM events`+w.String()+` ORDER BY id`+lim,
		append(w.args, limArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}

	var events []model.Event
	var ids []int64
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("iterate events: %w", err)
	}
	rows.Close()

	links, err := linkIDs(s.db, "event_tags", "event_id", "tag_id", ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range events {
		events[i].TagIDs = links[events[i].ID]
	}
	return events, total, nil
}

func (s *EventStore) Update(id int64, title string, tagIDs []int64) (*model.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE events SET title = ? WHERE id = ?`, title, id); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := replaceLinks(tx, "event_tags", "event_id", "tag_id", id, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// TitlesForPlan returns the titles of the events reachable from a plan, in id order.
func (s *EventStore) TitlesForPlan(planID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT e.id, e.title
		 FROM plan_occurrences po
		 JOIN occurrences o ON o.id = po.occurrence_id
		 JOIN events e ON e.id = o.event_id
		 WHERE po.plan_id = ?
		 ORDER BY e.id`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan event titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scan plan event title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// Missing returns the ids from the list that have no event.
func (s *EventStore) Missing(ids []int64) ([]int64, error) {
	return missing(s.db, "events", ids)
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

// planTagPath reaches event tags from a plan id column.
const planTagPath = `plan_occurrences po
	JOIN occurrences o ON o.id = po.occurrence_id
	JOIN event_tags et ON et.event_id = o.event_id`

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

func planWhere(f filter.Plan) *where {
	w := &where{}
	if f.HasTags {
		w.existsTag(planTagPath, "po.plan_id = plans.id", f.Tags)
	}
	return w
}

func (s *PlanStore) Create(occurrenceIDs []int64) (*model.Plan, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO plans (id) VALUES (NULL)`)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := replaceLinks(tx, "plan_occurrences", "plan_id", "occurrence_id", id, occurrenceIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id int64) (*model.Plan, error) {
	var p model.Plan
	err := s.db.QueryRow(`SELECT id FROM plans WHERE id = ?`, id).Scan(&p.ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}

	links, err := linkIDs(s.db, "plan_occurrences", "plan_id", "occurrence_id", []int64{id})
	if err != nil {
		return nil, err
	}
	p.OccurrenceIDs = links[id]
	return &p, nil
}

// List returns one page of plans matching f and the total match count.
func (s *PlanStore) List(f filter.Plan, p filter.Page) ([]model.Plan, int, error) {
	w := planWhere(f)
	total, err := count(s.db, "plans", w)
	if err != nil {
		return nil, 0, err
	}

	lim, limArgs := limitOffset(p)
	rows, err := s.db.Query(
		`SELECT id FROM plans`+w.String()+` ORDER BY id`+lim,
		append(w.args, limArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query plans: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan plan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("iterate plans: %w", err)
	}
	rows.Close()

	links, err := linkIDs(s.db, "plan_occurrences", "plan_id", "occurrence_id", ids)
	if err != nil {
		return nil, 0, err
	}
	plans := make([]model.Plan, 0, len(ids))
	for _, id := range ids {
		plans = append(plans, model.Plan{ID: id, OccurrenceIDs: links[id]})
	}
	return plans, total, nil
}

func (s *PlanStore) Update(id int64, occurrenceIDs []int64) (*model.Plan, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := replaceLinks(tx, "plan_occurrences", "plan_id", "occurrence_id", id, occurrenceIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM plans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// Missing returns the ids from the list that have no plan.
func (s *PlanStore) Missing(ids []int64) ([]int64, error) {
	return missing(s.db, "plans", ids)
}

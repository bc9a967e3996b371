package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

type SlotStore struct {
	db  *sql.DB
	loc *time.Location
}

// NewSlotStore creates a slot store. Calendar-date filters on the start
// column are evaluated in loc (UTC when nil).
func NewSlotStore(db *sql.DB, loc *time.Location) *SlotStore {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotStore{db: db, loc: loc}
}

func (s *SlotStore) where(f filter.Slot) *where {
	w := &where{}
	w.dateInstants("start", f.Range, s.loc)
	if f.HasTags {
		w.existsTag(planTagPath, "po.plan_id = slots.plan_id", f.Tags)
	}
	return w
}

func (s *SlotStore) Create(planID int64, start time.Time) (*model.Slot, error) {
	result, err := s.db.Exec(`INSERT INTO slots (plan_id, start) VALUES (?, ?)`, planID, start.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert slot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CreateMany inserts one slot per start in a single transaction and
// returns the new ids in order.
func (s *SlotStore) CreateMany(planID int64, starts []time.Time) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(starts))
	for _, start := range starts {
		result, err := tx.Exec(`INSERT INTO slots (plan_id, start) VALUES (?, ?)`, planID, start.UTC())
		if err != nil {
			return nil, fmt.Errorf("insert slot: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

func (s *SlotStore) GetByID(id int64) (*model.Slot, error) {
	var sl model.Slot
	err := s.db.QueryRow(`SELECT id, plan_id, start FROM slots WHERE id = ?`, id).Scan(&sl.ID, &sl.PlanID, &sl.Start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query slot: %w", err)
	}
	sl.Start = sl.Start.UTC()
	return &sl, nil
}

// List returns one page of slots matching f, ordered by start, and the
// total match count.
func (s *SlotStore) List(f filter.Slot, p filter.Page) ([]model.Slot, int, error) {
	if f.Range.Inverted() {
		return nil, 0, nil
	}
	w := s.where(f)
	total, err := count(s.db, "slots", w)
	if err != nil {
		return nil, 0, err
	}

	lim, limArgs := limitOffset(p)
	slots, err := s.query(`SELECT id, plan_id, start FROM slots`+w.String()+` ORDER BY start, id`+lim, append(w.args, limArgs...)...)
	if err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

// FindOne returns the single slot matching f. It returns (nil, nil) when
// nothing matches and ErrMultipleObjects when more than one slot does.
func (s *SlotStore) FindOne(f filter.Slot) (*model.Slot, error) {
	if f.Range.Inverted() {
		return nil, nil
	}
	w := s.where(f)
	slots, err := s.query(`SELECT id, plan_id, start FROM slots`+w.String()+` ORDER BY start, id LIMIT 2`, w.args...)
	if err != nil {
		return nil, err
	}
	switch len(slots) {
	case 0:
		return nil, nil
	case 1:
		return &slots[0], nil
	default:
		return nil, ErrMultipleObjects
	}
}

// CurrentWeek looks up the slot starting on the Monday of now's week,
// with both date bounds pinned to that day.
func (s *SlotStore) CurrentWeek(now time.Time) (*model.Slot, error) {
	week := filter.WeekStart(now.In(s.loc))
	return s.FindOne(filter.Slot{Range: filter.SingleDay(week)})
}

func (s *SlotStore) Update(id, planID int64, start time.Time) (*model.Slot, error) {
	if _, err := s.db.Exec(`UPDATE slots SET plan_id = ?, start = ? WHERE id = ?`, planID, start.UTC(), id); err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return s.GetByID(id)
}

func (s *SlotStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM slots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (s *SlotStore) query(q string, args ...any) ([]model.Slot, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var sl model.Slot
		if err := rows.Scan(&sl.ID, &sl.PlanID, &sl.Start); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		sl.Start = sl.Start.UTC()
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) Create(name string) (*model.Tag, error) {
	result, err := s.db.Exec(`INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TagStore) GetByID(id int64) (*model.Tag, error) {
	var t model.Tag
	err := s.db.QueryRow(`SELECT id, name FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tag: %w", err)
	}
	return &t, nil
}

// List returns one page of tags and the total number of tags.
func (s *TagStore) List(p filter.Page) ([]model.Tag, int, error) {
	var w where
	total, err := count(s.db, "tags", &w)
	if err != nil {
		return nil, 0, err
	}

	lim, limArgs := limitOffset(p)
	rows, err := s.db.Query(`SELECT id, name FROM tags ORDER BY id`+lim, limArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, 0, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, total, rows.Err()
}

func (s *TagStore) Update(id int64, name string) (*model.Tag, error) {
	if _, err := s.db.Exec(`UPDATE tags SET name = ? WHERE id = ?`, name, id); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return s.GetByID(id)
}

func (s *TagStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// Missing returns the ids that name no tag.
func (s *TagStore) Missing(ids []int64) ([]int64, error) {
	return missing(s.db, "tags", ids)
}

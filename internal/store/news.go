package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
)

// TimeLayout is the wall-clock format of the news time column.
const TimeLayout = "15:04:05"

type NewsStore struct {
	db *sql.DB
}

func NewNewsStore(db *sql.DB) *NewsStore {
	return &NewsStore{db: db}
}

const newsSelect = `SELECT n.id, n.title, n.text, n.author_id, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), n.date, n.time
	FROM news n LEFT JOIN users u ON u.id = n.author_id`

func scanNews(scanner interface{ Scan(...any) error }) (*model.News, error) {
	var n model.News
	var authorID sql.NullInt64
	var first, last, date string
	if err := scanner.Scan(&n.ID, &n.Title, &n.Text, &authorID, &first, &last, &date, &n.Time); err != nil {
		return nil, err
	}
	if authorID.Valid {
		n.AuthorID = &authorID.Int64
		author := model.User{FirstName: first, LastName: last}
		n.AuthorName = author.FullName()
	}
	d, err := time.Parse(filter.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse news date %q: %w", date, err)
	}
	n.Date = d
	return &n, nil
}

func (s *NewsStore) Create(title, text string, authorID *int64, date time.Time, clock string) (*model.News, error) {
	result, err := s.db.Exec(
		`INSERT INTO news (title, text, author_id, date, time) VALUES (?, ?, ?, ?, ?)`,
		title, text, nullInt64(authorID), date.Format(filter.DateLayout), clock,
	)
	if err != nil {
		return nil, fmt.Errorf("insert news: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NewsStore) GetByID(id int64) (*model.News, error) {
	n, err := scanNews(s.db.QueryRow(newsSelect+` WHERE n.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	return n, nil
}

// List returns one page of news matching f, newest first, and the total
// match count.
func (s *NewsStore) List(f filter.News, p filter.Page) ([]model.News, int, error) {
	if f.Range.Inverted() {
		return nil, 0, nil
	}
	var w where
	w.dateStrings("date", f.Range)
	total, err := count(s.db, "news", &w)
	if err != nil {
		return nil, 0, err
	}

	// Same predicates against the aliased table.
	var aw where
	aw.dateStrings("n.date", f.Range)
	lim, limArgs := limitOffset(p)
	rows, err := s.db.Query(
		newsSelect+aw.String()+` ORDER BY n.date DESC, n.time DESC, n.id DESC`+lim,
		append(aw.args, limArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var items []model.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan news: %w", err)
		}
		items = append(items, *n)
	}
	return items, total, rows.Err()
}

func (s *NewsStore) Update(id int64, title, text string, authorID *int64, date time.Time, clock string) (*model.News, error) {
	_, err := s.db.Exec(
		`UPDATE news SET title = ?, text = ?, author_id = ?, date = ?, time = ? WHERE id = ?`,
		title, text, nullInt64(authorID), date.Format(filter.DateLayout), clock, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update news: %w", err)
	}
	return s.GetByID(id)
}

func (s *NewsStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM news WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

package model

import "time"

type News struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	AuthorID   *int64    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Date       time.Time `json:"date"`
	Time       string    `json:"time"`
}

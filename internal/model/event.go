package model

type Event struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	TagIDs []int64 `json:"tag_ids"`
}

// Occurrence is a scheduled instance of an Event. Special occurrences
// (one-off dates) share the same shape but live in their own table.
type Occurrence struct {
	ID      int64 `json:"id"`
	EventID int64 `json:"event_id"`
}

package model

import "time"

// Plan groups occurrences that are offered together.
type Plan struct {
	ID            int64   `json:"id"`
	OccurrenceIDs []int64 `json:"occurrence_ids"`
}

// Slot binds a Plan to a concrete start time.
type Slot struct {
	ID     int64     `json:"id"`
	PlanID int64     `json:"plan_id"`
	Start  time.Time `json:"start"`
}

package filter

import (
	"net/url"
	"strconv"
)

// Slot selects slots by start date and by tags reachable through
// plan, occurrence and event.
type Slot struct {
	Range   DateRange
	Tags    []int64
	HasTags bool
}

// Plan selects plans whose occurrences' events carry one of Tags.
type Plan struct {
	Tags    []int64
	HasTags bool
}

// Event selects events carrying one of Tags.
type Event struct {
	Tags    []int64
	HasTags bool
}

// Occurrence selects occurrences of one event.
type Occurrence struct {
	EventID    int64
	HasEventID bool
}

// News selects news by publication date.
type News struct {
	Range DateRange
}

func ParseSlot(q url.Values) (Slot, error) {
	r, err := ParseDateRange(q, "from", "to")
	if err != nil {
		return Slot{}, err
	}
	tags, ok, err := ParseTagParam(q, "tags")
	if err != nil {
		return Slot{}, err
	}
	return Slot{Range: r, Tags: tags, HasTags: ok}, nil
}

func ParsePlan(q url.Values) (Plan, error) {
	tags, ok, err := ParseTagParam(q, "tags")
	if err != nil {
		return Plan{}, err
	}
	return Plan{Tags: tags, HasTags: ok}, nil
}

func ParseEvent(q url.Values) (Event, error) {
	tags, ok, err := ParseTagParam(q, "tags")
	if err != nil {
		return Event{}, err
	}
	return Event{Tags: tags, HasTags: ok}, nil
}

func ParseOccurrence(q url.Values) (Occurrence, error) {
	v, ok := last(q, "event")
	if !ok {
		return Occurrence{}, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return Occurrence{}, &ParamError{Param: "event", Value: v, Err: ErrInvalidID}
	}
	return Occurrence{EventID: id, HasEventID: true}, nil
}

func ParseNews(q url.Values) (News, error) {
	r, err := ParseDateRange(q, "since", "until")
	if err != nil {
		return News{}, err
	}
	return News{Range: r}, nil
}

package filter

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/samber/mo"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// parseLayout also accepts one-digit months and days ("2016-9-1").
const parseLayout = "2006-1-2"

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidTag  = errors.New("invalid tag id")
	ErrInvalidID   = errors.New("invalid id")
	ErrInvalidPage = errors.New("invalid pagination")
)

// ParamError reports which query parameter failed to parse.
type ParamError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid value for %q", e.Err, e.Value, e.Param)
}

func (e *ParamError) Unwrap() error { return e.Err }

// ParseDate parses an ISO calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(parseLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DateRange is an inclusive range of calendar dates. Either side may be
// absent. A range whose lower bound is after its upper bound matches nothing.
type DateRange struct {
	From mo.Option[time.Time]
	To   mo.Option[time.Time]
}

// SingleDay returns the range [d, d].
func SingleDay(d time.Time) DateRange {
	day := civil(d)
	return DateRange{From: mo.Some(day), To: mo.Some(day)}
}

// ParseDateRange reads the lower and upper bound parameters from q.
// A parameter that is present must be a valid date, even when empty.
func ParseDateRange(q url.Values, lowerKey, upperKey string) (DateRange, error) {
	var r DateRange
	if v, ok := last(q, lowerKey); ok {
		d, err := ParseDate(v)
		if err != nil {
			return DateRange{}, &ParamError{Param: lowerKey, Value: v, Err: err}
		}
		r.From = mo.Some(d)
	}
	if v, ok := last(q, upperKey); ok {
		d, err := ParseDate(v)
		if err != nil {
			return DateRange{}, &ParamError{Param: upperKey, Value: v, Err: err}
		}
		r.To = mo.Some(d)
	}
	return r, nil
}

// Inverted reports whether the lower bound lies after the upper bound.
// Such a range matches nothing.
func (r DateRange) Inverted() bool {
	from, okFrom := r.From.Get()
	to, okTo := r.To.Get()
	return okFrom && okTo && civil(from).After(civil(to))
}

// Instants converts the range into instants for timestamp columns:
// lo is midnight of From in loc, hi is midnight of the day after To
// (exclusive). Both are returned in UTC.
func (r DateRange) Instants(loc *time.Location) (lo, hi mo.Option[time.Time]) {
	if from, ok := r.From.Get(); ok {
		lo = mo.Some(midnight(from, loc).UTC())
	}
	if to, ok := r.To.Get(); ok {
		hi = mo.Some(midnight(to, loc).AddDate(0, 0, 1).UTC())
	}
	return lo, hi
}

// Strings renders both bounds in DateLayout for date columns stored as text.
func (r DateRange) Strings() (lo, hi mo.Option[string]) {
	if from, ok := r.From.Get(); ok {
		lo = mo.Some(from.Format(DateLayout))
	}
	if to, ok := r.To.Get(); ok {
		hi = mo.Some(to.Format(DateLayout))
	}
	return lo, hi
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// last mirrors form semantics: a repeated parameter takes its last value.
func last(q url.Values, key string) (string, bool) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

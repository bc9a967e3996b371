// Package schedule expands recurrence rules into slot start times.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxStarts caps a single expansion, ten years of weekly slots.
const MaxStarts = 520

var (
	ErrEmptyRule = errors.New("empty recurrence rule")
	ErrTooMany   = errors.New("rule yields too many starts")
)

// Starts returns the occurrences of rule beginning at start. A non-zero
// until ends the series at that instant, inclusive, unless the rule's own
// UNTIL is earlier. Series longer than limit are rejected.
func Starts(rule string, start, until time.Time, limit int) ([]time.Time, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return nil, ErrEmptyRule
	}
	if limit <= 0 {
		limit = MaxStarts
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rule: %w", err)
	}
	r.DTStart(start)
	if !until.IsZero() && until.Before(r.GetUntil()) {
		r.Until(until)
	}

	var out []time.Time
	next := r.Iterator()
	for t, ok := next(); ok; t, ok = next() {
		if len(out) == limit {
			return nil, fmt.Errorf("%w: more than %d", ErrTooMany, limit)
		}
		out = append(out, t)
	}
	return out, nil
}

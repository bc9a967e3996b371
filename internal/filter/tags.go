package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseTags parses a comma-separated list of tag ids. Duplicates are
// dropped, order of first appearance is kept.
func ParseTags(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, ErrInvalidTag
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseTagParam reads key from q. ok is false when the parameter is absent.
func ParseTagParam(q url.Values, key string) (ids []int64, ok bool, err error) {
	v, present := last(q, key)
	if !present {
		return nil, false, nil
	}
	ids, err = ParseTags(v)
	if err != nil {
		return nil, true, &ParamError{Param: key, Value: v, Err: err}
	}
	return ids, true, nil
}

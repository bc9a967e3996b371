package filter

import (
	"net/url"
	"strconv"
)

// Page is a limit/offset window over a list.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset. A missing limit uses defaultLimit,
// limit=0 means maxLimit, and any limit above maxLimit is capped.
func ParsePage(q url.Values, defaultLimit, maxLimit int) (Page, error) {
	p := Page{Limit: defaultLimit}
	if v, ok := last(q, "limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, &ParamError{Param: "limit", Value: v, Err: ErrInvalidPage}
		}
		p.Limit = n
	}
	if p.Limit == 0 || (maxLimit > 0 && p.Limit > maxLimit) {
		p.Limit = maxLimit
	}
	if v, ok := last(q, "offset"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, &ParamError{Param: "offset", Value: v, Err: ErrInvalidPage}
		}
		p.Offset = n
	}
	return p, nil
}

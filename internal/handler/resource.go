// Package handler serves the /api/v1/ resources. Every resource renders as
// a flat object with a resource_uri; related objects render as resource
// URIs and are accepted on write either as URIs or as bare ids.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/render"
)

// APIRoot prefixes every resource URI.
const APIRoot = "/api/v1/"

// Options are shared by every resource handler.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// Location is the zone timestamps are rendered in and naive
	// timestamps on write are read in.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func resourceURI(resource string, id int64) string {
	return APIRoot + resource + "/" + strconv.FormatInt(id, 10) + "/"
}

func resourceURIs(resource string, ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, resourceURI(resource, id))
	}
	return out
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// page parses limit and offset for a list request.
func (o Options) page(r *http.Request) (filter.Page, error) {
	return filter.ParsePage(r.URL.Query(), o.DefaultLimit, o.MaxLimit)
}

// listMeta builds the pagination block, including next and previous
// URIs that keep every other query parameter.
func listMeta(r *http.Request, p filter.Page, total int) render.Meta {
	m := render.Meta{Limit: p.Limit, Offset: p.Offset, TotalCount: total}
	if p.Limit <= 0 {
		return m
	}
	if p.Offset+p.Limit < total {
		next := pageURI(r, p.Limit, p.Offset+p.Limit)
		m.Next = &next
	}
	if p.Offset > 0 {
		prev := pageURI(r, p.Limit, max(p.Offset-p.Limit, 0))
		m.Previous = &prev
	}
	return m
}

func pageURI(r *http.Request, limit, offset int) string {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return r.URL.Path + "?" + q.Encode()
}

// writeQueryError maps filter errors to 400 and anything else to 500.
func writeQueryError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var pe *filter.ParamError
	if errors.As(err, &pe) {
		render.Error(w, r, http.StatusBadRequest, pe.Error())
		return
	}
	render.Error(w, r, http.StatusInternalServerError, "failed to "+what)
}

// writeBodyError maps body decoding and validation errors to 400 and 415.
func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, render.ErrUnsupportedFormat) {
		render.Error(w, r, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	render.Error(w, r, http.StatusBadRequest, err.Error())
}

func created(w http.ResponseWriter, r *http.Request, uri string, v render.Object) {
	w.Header().Set("Location", uri)
	render.Write(w, r, http.StatusCreated, v)
}

// body is a decoded request body.
type body map[string]any

func decodeBody(r *http.Request) (body, error) {
	fields, err := render.DecodeBody(r)
	if err != nil {
		return nil, err
	}
	return body(fields), nil
}

func (b body) has(key string) bool {
	_, ok := b[key]
	return ok
}

// str returns a string field. A missing or null field is "".
func (b body) str(key string) (string, error) {
	switch v := b[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s must be a string", key)
	}
}

// ref returns the id named by a to-one field.
func (b body) ref(key, resource string) (int64, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	id, err := parseRef(v, resource)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return id, nil
}

// refs returns the ids named by a to-many field. Null means none.
func (b body) refs(key, resource string) ([]int64, error) {
	switch v := b[key].(type) {
	case nil:
		return nil, nil
	case []any:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			id, err := parseRef(item, resource)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%s must be a list", key)
	}
}

// parseRef accepts a bare id (number or numeric string) or a resource
// URI such as /api/v1/plan/3/, optionally absolute.
func parseRef(v any, resource string) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		id, err := x.Int64()
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid %s id %s", resource, x)
		}
		return id, nil
	case int:
		if x <= 0 {
			return 0, fmt.Errorf("invalid %s id %d", resource, x)
		}
		return int64(x), nil
	case float64:
		if x <= 0 || x != math.Trunc(x) {
			return 0, fmt.Errorf("invalid %s id %v", resource, x)
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
			return id, nil
		}
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
		prefix := APIRoot + resource + "/"
		if !strings.HasPrefix(s, prefix) {
			return 0, fmt.Errorf("invalid %s reference %q", resource, x)
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(s, prefix), "/"), 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid %s reference %q", resource, x)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("invalid %s reference %v", resource, v)
	}
}

// checkMissing fails with a 400-worthy error naming the first id that
// does not exist.
func checkMissing(resource string, missing func([]int64) ([]int64, error), ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	gone, err := missing(ids)
	if err != nil {
		return err
	}
	if len(gone) > 0 {
		return &refError{resource: resource, id: gone[0]}
	}
	return nil
}

type refError struct {
	resource string
	id       int64
}

func (e *refError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.resource, e.id)
}

// writeRefError reports an unknown related object as 400 and other
// failures as 500.
func writeRefError(w http.ResponseWriter, r *http.Request, err error) {
	var re *refError
	if errors.As(err, &re) {
		render.Error(w, r, http.StatusBadRequest, re.Error())
		return
	}
	render.Error(w, r, http.StatusInternalServerError, "failed to check related objects")
}

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/clubm8/clubm8api/internal/auth"
	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

// noAuthor is rendered for news without an author.
const noAuthor = "nobody"

type NewsHandler struct {
	newsStore *store.NewsStore
	opts      Options
	now       func() time.Time
	text      *bluemonday.Policy
	title     *bluemonday.Policy
	logger    *slog.Logger
}

func NewNewsHandler(ns *store.NewsStore, opts Options, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		newsStore: ns,
		opts:      opts,
		now:       time.Now,
		text:      bluemonday.UGCPolicy(),
		title:     bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

func newsObject(n *model.News) render.Object {
	author := noAuthor
	if n.AuthorID != nil {
		author = n.AuthorName
	}
	return render.Object{
		"id":           n.ID,
		"title":        n.Title,
		"text":         n.Text,
		"author":       author,
		"date":         n.Date.Format(filter.DateLayout),
		"time":         n.Time,
		"resource_uri": resourceURI("news", n.ID),
	}
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseNews(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err, "list news")
		return
	}
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list news")
		return
	}
	items, total, err := h.newsStore.List(f, page)
	if err != nil {
		h.logger.Error("list news", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list news")
		return
	}
	objects := make([]render.Object, 0, len(items))
	for i := range items {
		objects = append(objects, newsObject(&items[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	n, err := h.newsStore.GetByID(id)
	if err != nil {
		h.logger.Error("get news", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get news")
		return
	}
	if n == nil {
		render.Error(w, r, http.StatusNotFound, "news not found")
		return
	}
	render.Write(w, r, http.StatusOK, newsObject(n))
}

type newsInput struct {
	title string
	text  string
	date  time.Time
	clock string
}

// parseClock accepts HH:MM or HH:MM:SS.
func parseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{store.TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(store.TimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", s)
}

// readNews applies the body on top of base. Without partial, title is
// required and date and time default to now.
func (h *NewsHandler) readNews(b body, base newsInput, partial bool) (newsInput, error) {
	in := base
	if !partial || b.has("title") {
		title, err := b.str("title")
		if err != nil {
			return in, err
		}
		in.title = strings.TrimSpace(h.title.Sanitize(title))
		if in.title == "" {
			return in, errors.New("title is required")
		}
	}
	if !partial || b.has("text") {
		text, err := b.str("text")
		if err != nil {
			return in, err
		}
		in.text = h.text.Sanitize(text)
	}

	now := h.now().In(h.opts.location())
	if !partial || b.has("date") {
		raw, err := b.str("date")
		if err != nil {
			return in, err
		}
		if raw == "" {
			in.date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		} else if in.date, err = filter.ParseDate(raw); err != nil {
			return in, fmt.Errorf("invalid date %q", raw)
		}
	}
	if !partial || b.has("time") {
		raw, err := b.str("time")
		if err != nil {
			return in, err
		}
		if raw == "" {
			in.clock = now.Format(store.TimeLayout)
		} else if in.clock, err = parseClock(raw); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Create stores a news item authored by the authenticated user.
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	in, err := h.readNews(b, newsInput{}, false)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var authorID *int64
	if uid := auth.UserID(r.Context()); uid != 0 {
		authorID = &uid
	}
	n, err := h.newsStore.Create(in.title, in.text, authorID, in.date, in.clock)
	if err != nil {
		h.logger.Error("create news", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create news")
		return
	}
	created(w, r, resourceURI("news", n.ID), newsObject(n))
}

// Update serves PUT and PATCH. The author is never changed.
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.newsStore.GetByID(id)
	if err != nil {
		h.logger.Error("get news", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get news")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "news not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	base := newsInput{title: existing.Title, text: existing.Text, date: existing.Date, clock: existing.Time}
	in, err := h.readNews(b, base, r.Method == http.MethodPatch)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.newsStore.Update(id, in.title, in.text, existing.AuthorID, in.date, in.clock)
	if err != nil {
		h.logger.Error("update news", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update news")
		return
	}
	render.Write(w, r, http.StatusOK, newsObject(n))
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.newsStore.GetByID(id)
	if err != nil {
		h.logger.Error("get news", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get news")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "news not found")
		return
	}
	if err := h.newsStore.Delete(id); err != nil {
		h.logger.Error("delete news", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete news")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

type EventHandler struct {
	eventStore *store.EventStore
	tagStore   *store.TagStore
	opts       Options
	logger     *slog.Logger
}

func NewEventHandler(es *store.EventStore, ts *store.TagStore, opts Options, logger *slog.Logger) *EventHandler {
	return &EventHandler{eventStore: es, tagStore: ts, opts: opts, logger: logger}
}

func eventObject(e *model.Event) render.Object {
	return render.Object{
		"id":           e.ID,
		"title":        e.Title,
		"tags":         resourceURIs("tag", e.TagIDs),
		"resource_uri": resourceURI("event", e.ID),
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseEvent(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err, "list events")
		return
	}
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list events")
		return
	}
	events, total, err := h.eventStore.List(f, page)
	if err != nil {
		h.logger.Error("list events", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list events")
		return
	}
	objects := make([]render.Object, 0, len(events))
	for i := range events {
		objects = append(objects, eventObject(&events[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	event, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		render.Error(w, r, http.StatusNotFound, "event not found")
		return
	}
	render.Write(w, r, http.StatusOK, eventObject(event))
}

type eventInput struct {
	title  string
	tagIDs []int64
}

// readEvent applies the body on top of base. Without partial every field
// is read from the body.
func (h *EventHandler) readEvent(b body, base eventInput, partial bool) (eventInput, error) {
	in := base
	var err error
	if !partial || b.has("title") {
		if in.title, err = b.str("title"); err != nil {
			return in, err
		}
		in.title = strings.TrimSpace(in.title)
	}
	if !partial || b.has("tags") {
		if in.tagIDs, err = b.refs("tags", "tag"); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	in, err := h.readEvent(b, eventInput{}, false)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if in.title == "" {
		render.Error(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if err := checkMissing("tag", h.tagStore.Missing, in.tagIDs); err != nil {
		writeRefError(w, r, err)
		return
	}

	event, err := h.eventStore.Create(in.title, in.tagIDs)
	if err != nil {
		h.logger.Error("create event", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create event")
		return
	}
	created(w, r, resourceURI("event", event.ID), eventObject(event))
}

// Update serves PUT and PATCH. PATCH keeps fields the body leaves out.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "event not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	base := eventInput{title: existing.Title, tagIDs: existing.TagIDs}
	in, err := h.readEvent(b, base, r.Method == http.MethodPatch)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if in.title == "" {
		render.Error(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if err := checkMissing("tag", h.tagStore.Missing, in.tagIDs); err != nil {
		writeRefError(w, r, err)
		return
	}

	event, err := h.eventStore.Update(id, in.title, in.tagIDs)
	if err != nil {
		h.logger.Error("update event", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update event")
		return
	}
	render.Write(w, r, http.StatusOK, eventObject(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "event not found")
		return
	}
	if err := h.eventStore.Delete(id); err != nil {
		h.logger.Error("delete event", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

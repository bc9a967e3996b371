package handler

import (
	"log/slog"
	"net/http"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

// OccurrenceHandler serves both occurrences and special occurrences; the
// two differ only in their store and resource name.
type OccurrenceHandler struct {
	resource   string
	occStore   *store.OccurrenceStore
	eventStore *store.EventStore
	opts       Options
	logger     *slog.Logger
}

func NewOccurrenceHandler(resource string, occ *store.OccurrenceStore, es *store.EventStore, opts Options, logger *slog.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{resource: resource, occStore: occ, eventStore: es, opts: opts, logger: logger}
}

func (h *OccurrenceHandler) object(o *model.Occurrence) render.Object {
	return render.Object{
		"id":           o.ID,
		"event":        resourceURI("event", o.EventID),
		"resource_uri": resourceURI(h.resource, o.ID),
	}
}

func (h *OccurrenceHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseOccurrence(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err, "list "+h.resource)
		return
	}
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list "+h.resource)
		return
	}
	items, total, err := h.occStore.List(f, page)
	if err != nil {
		h.logger.Error("list occurrences", "resource", h.resource, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list "+h.resource)
		return
	}
	objects := make([]render.Object, 0, len(items))
	for i := range items {
		objects = append(objects, h.object(&items[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

func (h *OccurrenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	o, err := h.occStore.GetByID(id)
	if err != nil {
		h.logger.Error("get occurrence", "resource", h.resource, "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get "+h.resource)
		return
	}
	if o == nil {
		render.Error(w, r, http.StatusNotFound, h.resource+" not found")
		return
	}
	render.Write(w, r, http.StatusOK, h.object(o))
}

func (h *OccurrenceHandler) readEvent(w http.ResponseWriter, r *http.Request, b body) (int64, bool) {
	eventID, err := b.ref("event", "event")
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if err := checkMissing("event", h.eventStore.Missing, []int64{eventID}); err != nil {
		writeRefError(w, r, err)
		return 0, false
	}
	return eventID, true
}

func (h *OccurrenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	eventID, ok := h.readEvent(w, r, b)
	if !ok {
		return
	}

	o, err := h.occStore.Create(eventID)
	if err != nil {
		h.logger.Error("create occurrence", "resource", h.resource, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create "+h.resource)
		return
	}
	created(w, r, resourceURI(h.resource, o.ID), h.object(o))
}

// Update serves PUT and PATCH. A PATCH without event is a no-op.
func (h *OccurrenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.occStore.GetByID(id)
	if err != nil {
		h.logger.Error("get occurrence", "resource", h.resource, "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get "+h.resource)
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, h.resource+" not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	eventID := existing.EventID
	if r.Method == http.MethodPut || b.has("event") {
		var ok bool
		if eventID, ok = h.readEvent(w, r, b); !ok {
			return
		}
	}

	o, err := h.occStore.Update(id, eventID)
	if err != nil {
		h.logger.Error("update occurrence", "resource", h.resource, "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update "+h.resource)
		return
	}
	render.Write(w, r, http.StatusOK, h.object(o))
}

func (h *OccurrenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.occStore.GetByID(id)
	if err != nil {
		h.logger.Error("get occurrence", "resource", h.resource, "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get "+h.resource)
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, h.resource+" not found")
		return
	}
	if err := h.occStore.Delete(id); err != nil {
		h.logger.Error("delete occurrence", "resource", h.resource, "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete "+h.resource)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

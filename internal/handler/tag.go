package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

type TagHandler struct {
	tagStore *store.TagStore
	opts     Options
	logger   *slog.Logger
}

func NewTagHandler(ts *store.TagStore, opts Options, logger *slog.Logger) *TagHandler {
	return &TagHandler{tagStore: ts, opts: opts, logger: logger}
}

func tagObject(t *model.Tag) render.Object {
	return render.Object{
		"id":           t.ID,
		"name":         t.Name,
		"resource_uri": resourceURI("tag", t.ID),
	}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list tags")
		return
	}
	tags, total, err := h.tagStore.List(page)
	if err != nil {
		h.logger.Error("list tags", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list tags")
		return
	}
	objects := make([]render.Object, 0, len(tags))
	for i := range tags {
		objects = append(objects, tagObject(&tags[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	tag, err := h.tagStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tag", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if tag == nil {
		render.Error(w, r, http.StatusNotFound, "tag not found")
		return
	}
	render.Write(w, r, http.StatusOK, tagObject(tag))
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	name, err := b.str("name")
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		render.Error(w, r, http.StatusBadRequest, "name is required")
		return
	}

	tag, err := h.tagStore.Create(name)
	if err != nil {
		h.logger.Error("create tag", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create tag")
		return
	}
	created(w, r, resourceURI("tag", tag.ID), tagObject(tag))
}

// Update serves PUT and PATCH. PATCH keeps fields the body leaves out.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.tagStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tag", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "tag not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	name := existing.Name
	if b.has("name") || r.Method == http.MethodPut {
		if name, err = b.str("name"); err != nil {
			render.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
		name = strings.TrimSpace(name)
	}
	if name == "" {
		render.Error(w, r, http.StatusBadRequest, "name is required")
		return
	}

	tag, err := h.tagStore.Update(id, name)
	if err != nil {
		h.logger.Error("update tag", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update tag")
		return
	}
	render.Write(w, r, http.StatusOK, tagObject(tag))
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.tagStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tag", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "tag not found")
		return
	}
	if err := h.tagStore.Delete(id); err != nil {
		h.logger.Error("delete tag", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

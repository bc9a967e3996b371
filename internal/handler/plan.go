package handler

import (
	"log/slog"
	"net/http"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

type PlanHandler struct {
	planStore *store.PlanStore
	occStore  *store.OccurrenceStore
	opts      Options
	logger    *slog.Logger
}

func NewPlanHandler(ps *store.PlanStore, occ *store.OccurrenceStore, opts Options, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{planStore: ps, occStore: occ, opts: opts, logger: logger}
}

func planObject(p *model.Plan) render.Object {
	return render.Object{
		"id":           p.ID,
		"occurences":   resourceURIs("occurence", p.OccurrenceIDs),
		"resource_uri": resourceURI("plan", p.ID),
	}
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParsePlan(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err, "list plans")
		return
	}
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list plans")
		return
	}
	plans, total, err := h.planStore.List(f, page)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list plans")
		return
	}
	objects := make([]render.Object, 0, len(plans))
	for i := range plans {
		objects = append(objects, planObject(&plans[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	plan, err := h.planStore.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get plan")
		return
	}
	if plan == nil {
		render.Error(w, r, http.StatusNotFound, "plan not found")
		return
	}
	render.Write(w, r, http.StatusOK, planObject(plan))
}

func (h *PlanHandler) readOccurrences(w http.ResponseWriter, r *http.Request, b body) ([]int64, bool) {
	ids, err := b.refs("occurences", "occurence")
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := checkMissing("occurence", h.occStore.Missing, ids); err != nil {
		writeRefError(w, r, err)
		return nil, false
	}
	return ids, true
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	ids, ok := h.readOccurrences(w, r, b)
	if !ok {
		return
	}

	plan, err := h.planStore.Create(ids)
	if err != nil {
		h.logger.Error("create plan", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create plan")
		return
	}
	created(w, r, resourceURI("plan", plan.ID), planObject(plan))
}

// Update serves PUT and PATCH. A PATCH without occurences is a no-op.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.planStore.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get plan")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "plan not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	ids := existing.OccurrenceIDs
	if r.Method == http.MethodPut || b.has("occurences") {
		var ok bool
		if ids, ok = h.readOccurrences(w, r, b); !ok {
			return
		}
	}

	plan, err := h.planStore.Update(id, ids)
	if err != nil {
		h.logger.Error("update plan", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update plan")
		return
	}
	render.Write(w, r, http.StatusOK, planObject(plan))
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.planStore.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get plan")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "plan not found")
		return
	}
	if err := h.planStore.Delete(id); err != nil {
		h.logger.Error("delete plan", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

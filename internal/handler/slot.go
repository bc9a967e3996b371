package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/clubm8/clubm8api/internal/filter"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
	"github.com/clubm8/clubm8api/internal/store"
)

// slotDuration is the length given to slot events in the calendar feed.
const slotDuration = 2 * time.Hour

type SlotHandler struct {
	slotStore  *store.SlotStore
	planStore  *store.PlanStore
	eventStore *store.EventStore
	opts       Options
	now        func() time.Time
	logger     *slog.Logger
}

func NewSlotHandler(ss *store.SlotStore, ps *store.PlanStore, es *store.EventStore, opts Options, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{slotStore: ss, planStore: ps, eventStore: es, opts: opts, now: time.Now, logger: logger}
}

// SetClock replaces the clock used by Current.
func (h *SlotHandler) SetClock(now func() time.Time) {
	h.now = now
}

func (h *SlotHandler) object(s *model.Slot) render.Object {
	return render.Object{
		"id":           s.ID,
		"plan":         resourceURI("plan", s.PlanID),
		"start":        s.Start.In(h.opts.location()).Format(time.RFC3339),
		"resource_uri": resourceURI("slot", s.ID),
	}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseSlot(r.URL.Query())
	if err != nil {
		writeQueryError(w, r, err, "list slots")
		return
	}
	page, err := h.opts.page(r)
	if err != nil {
		writeQueryError(w, r, err, "list slots")
		return
	}
	slots, total, err := h.slotStore.List(f, page)
	if err != nil {
		h.logger.Error("list slots", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to list slots")
		return
	}

	if format, _ := render.Negotiate(r); format == render.ICS {
		cal, err := h.calendar(slots)
		if err != nil {
			h.logger.Error("build slot calendar", "error", err)
			render.Error(w, r, http.StatusInternalServerError, "failed to build calendar")
			return
		}
		render.Write(w, r, http.StatusOK, cal)
		return
	}

	objects := make([]render.Object, 0, len(slots))
	for i := range slots {
		objects = append(objects, h.object(&slots[i]))
	}
	render.Write(w, r, http.StatusOK, render.List{Meta: listMeta(r, page, total), Objects: objects})
}

// calendar renders slots as VEVENTs titled after the events of their plan.
func (h *SlotHandler) calendar(slots []model.Slot) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//clubm8//clubm8 API//EN")
	cal.Props.SetText(ical.PropName, "clubm8 slots")

	titles := make(map[int64]string)
	stamp := h.now().UTC()
	for _, s := range slots {
		summary, ok := titles[s.PlanID]
		if !ok {
			names, err := h.eventStore.TitlesForPlan(s.PlanID)
			if err != nil {
				return nil, err
			}
			summary = strings.Join(names, ", ")
			if summary == "" {
				summary = fmt.Sprintf("Plan %d", s.PlanID)
			}
			titles[s.PlanID] = summary
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("slot-%d@clubm8", s.ID))
		event.Props.SetText(ical.PropSummary, summary)
		event.Props.SetText(ical.PropDescription, resourceURI("slot", s.ID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, s.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, s.Start.Add(slotDuration).UTC())
		cal.Children = append(cal.Children, event.Component)
	}
	return cal, nil
}

func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	slot, err := h.slotStore.GetByID(id)
	if err != nil {
		h.logger.Error("get slot", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get slot")
		return
	}
	if slot == nil {
		render.Error(w, r, http.StatusNotFound, "slot not found")
		return
	}
	render.Write(w, r, http.StatusOK, h.object(slot))
}

// Current returns the slot starting on the first day of the current week.
// No such slot is 410 Gone; more than one is 400.
func (h *SlotHandler) Current(w http.ResponseWriter, r *http.Request) {
	slot, err := h.slotStore.CurrentWeek(h.now())
	if errors.Is(err, store.ErrMultipleObjects) {
		render.Error(w, r, http.StatusBadRequest, "More than one resource found.")
		return
	}
	if err != nil {
		h.logger.Error("current slot", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get current slot")
		return
	}
	if slot == nil {
		w.WriteHeader(http.StatusGone)
		return
	}
	render.Write(w, r, http.StatusOK, h.object(slot))
}

// startLayouts are tried in order. Layouts without an offset are read in
// the configured location.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start %q", s)
}

type slotInput struct {
	planID int64
	start  time.Time
}

func (h *SlotHandler) readSlot(b body, base slotInput, partial bool) (slotInput, error) {
	in := base
	if !partial || b.has("plan") {
		id, err := b.ref("plan", "plan")
		if err != nil {
			return in, err
		}
		in.planID = id
	}
	if !partial || b.has("start") {
		raw, err := b.str("start")
		if err != nil {
			return in, err
		}
		if raw == "" {
			return in, errors.New("start is required")
		}
		if in.start, err = parseStart(raw, h.opts.location()); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	in, err := h.readSlot(b, slotInput{}, false)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkMissing("plan", h.planStore.Missing, []int64{in.planID}); err != nil {
		writeRefError(w, r, err)
		return
	}

	slot, err := h.slotStore.Create(in.planID, in.start)
	if err != nil {
		h.logger.Error("create slot", "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to create slot")
		return
	}
	created(w, r, resourceURI("slot", slot.ID), h.object(slot))
}

// Update serves PUT and PATCH. PATCH keeps fields the body leaves out.
func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.slotStore.GetByID(id)
	if err != nil {
		h.logger.Error("get slot", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get slot")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "slot not found")
		return
	}

	b, err := decodeBody(r)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	base := slotInput{planID: existing.PlanID, start: existing.Start}
	in, err := h.readSlot(b, base, r.Method == http.MethodPatch)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkMissing("plan", h.planStore.Missing, []int64{in.planID}); err != nil {
		writeRefError(w, r, err)
		return
	}

	slot, err := h.slotStore.Update(id, in.planID, in.start)
	if err != nil {
		h.logger.Error("update slot", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to update slot")
		return
	}
	render.Write(w, r, http.StatusOK, h.object(slot))
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.slotStore.GetByID(id)
	if err != nil {
		h.logger.Error("get slot", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to get slot")
		return
	}
	if existing == nil {
		render.Error(w, r, http.StatusNotFound, "slot not found")
		return
	}
	if err := h.slotStore.Delete(id); err != nil {
		h.logger.Error("delete slot", "id", id, "error", err)
		render.Error(w, r, http.StatusInternalServerError, "failed to delete slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

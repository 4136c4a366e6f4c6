package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/policy"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/query"
)

// WorkspaceIDHeader carries the explicit workspace scope on every request.
// There is deliberately no ambient tenant state anywhere in this service.
const WorkspaceIDHeader = "X-Workspace-Id"

type SlotHandler struct {
	facade *query.Facade
	logger *slog.Logger
}

func NewSlotHandler(facade *query.Facade, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{facade: facade, logger: logger}
}

type slotItem struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	CalendarID string `json:"calendar_id,omitempty"`
}

type entityInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type serviceInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

type calendarSlotsResponse struct {
	Date     string       `json:"date"`
	Calendar entityInfo   `json:"calendar"`
	Service  *serviceInfo `json:"service"`
	Slots    []slotItem   `json:"slots"`
	Message  string       `json:"message,omitempty"`
}

type staffSlotsResponse struct {
	StaffID         string                `json:"staff_id"`
	ServiceID       string                `json:"service_id,omitempty"`
	DurationMinutes int                   `json:"duration_minutes"`
	Days            map[string][]slotItem `json:"days"`
}

// CalendarSlots handles GET /api/v1/calendars/{id}/slots?date=&service_id=.
func (h *SlotHandler) CalendarSlots(w http.ResponseWriter, r *http.Request) {
	workspaceID := workspaceID(r)
	if workspaceID == "" {
		http.Error(w, "missing "+WorkspaceIDHeader, http.StatusBadRequest)
		return
	}
	calendarID := r.PathValue("id")

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))

	res, err := h.facade.SingleDay(r.Context(), workspaceID, calendarID, serviceID, date)
	if err != nil {
		h.writeQueryError(w, r, err, "calendar")
		return
	}
	if res.Entity.Kind != model.EntityKindCalendar {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	day := res.Days[0]
	resp := calendarSlotsResponse{
		Date:     day.Date.Format(time.DateOnly),
		Calendar: entityInfo{ID: res.Entity.ID, Name: res.Entity.Name},
		Slots:    slotItems(day.Slots, res.Entity.ID),
		Message:  day.Reason,
	}
	if res.Service.ID != "" {
		resp.Service = &serviceInfo{
			ID:              res.Service.ID,
			Name:            res.Service.Name,
			DurationMinutes: res.DurationMinutes,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// StaffSlots handles GET /api/v1/staff/{id}/available-slots?service_id=&date=&days=.
func (h *SlotHandler) StaffSlots(w http.ResponseWriter, r *http.Request) {
	workspaceID := workspaceID(r)
	if workspaceID == "" {
		http.Error(w, "missing "+WorkspaceIDHeader, http.StatusBadRequest)
		return
	}
	staffID := r.PathValue("id")

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))

	days := 7
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = n
	}

	res, err := h.facade.Range(r.Context(), workspaceID, staffID, serviceID, date, days)
	if err != nil {
		h.writeQueryError(w, r, err, "staff")
		return
	}
	if res.Entity.Kind != model.EntityKindStaff {
		http.Error(w, "staff not found", http.StatusNotFound)
		return
	}

	resp := staffSlotsResponse{
		StaffID:         res.Entity.ID,
		ServiceID:       res.Service.ID,
		DurationMinutes: res.DurationMinutes,
		Days:            make(map[string][]slotItem, len(res.Days)),
	}
	for _, day := range res.Days {
		resp.Days[day.Date.Format(time.DateOnly)] = slotItems(day.Slots, "")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SlotHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error, kind string) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		http.Error(w, kind+" not found", http.StatusNotFound)
	case errors.Is(err, policy.ErrServiceNotFound):
		http.Error(w, "service not found", http.StatusNotFound)
	case errors.Is(err, query.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("slot query failed", "err", err, "path", r.URL.Path)
		http.Error(w, "failed to compute slots", http.StatusInternalServerError)
	}
}

func slotItems(slots []model.Slot, calendarID string) []slotItem {
	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			Start:      s.Start.Format(time.RFC3339),
			End:        s.End.Format(time.RFC3339),
			CalendarID: calendarID,
		})
	}
	return items
}

func workspaceID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(WorkspaceIDHeader))
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(raw))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

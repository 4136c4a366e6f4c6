package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/storage"
)

type BookingHandler struct {
	bookings *storage.BookingRepository
	outbox   *outbox.Repository
	logger   *slog.Logger
}

func NewBookingHandler(bookings *storage.BookingRepository, ob *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, outbox: ob, logger: logger}
}

type createBookingRequest struct {
	EntityID      string `json:"entity_id"`
	ServiceID     string `json:"service_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type createBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type appointmentBookedPayload struct {
	AppointmentID string    `json:"appointment_id"`
	WorkspaceID   string    `json:"workspace_id"`
	EntityID      string    `json:"entity_id"`
	ServiceID     string    `json:"service_id,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// Create handles POST /api/v1/bookings. The overlap recheck and the insert
// run in one transaction; the btree_gist exclusion constraint on appointments
// is the backstop for races the recheck cannot see.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := workspaceID(r)
	if workspaceID == "" {
		http.Error(w, "missing "+WorkspaceIDHeader, http.StatusBadRequest)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := req.toAppointment(workspaceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		h.logger.Error("begin booking tx failed", "err", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	taken, err := h.bookings.HasOverlap(ctx, tx, appt.EntityID, appt.Start, appt.End)
	if err != nil {
		h.logger.Error("overlap check failed", "err", err, "entity_id", appt.EntityID)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "time slot is no longer available", http.StatusConflict)
		return
	}

	apptID, err := h.bookings.Create(ctx, tx, &appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot is no longer available", http.StatusConflict)
			return
		}
		h.logger.Error("insert appointment failed", "err", err, "entity_id", appt.EntityID)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(appointmentBookedPayload{
		AppointmentID: apptID,
		WorkspaceID:   appt.WorkspaceID,
		EntityID:      appt.EntityID,
		ServiceID:     appt.ServiceID,
		CustomerName:  appt.CustomerName,
		CustomerEmail: appt.CustomerEmail,
		StartTime:     appt.Start,
		EndTime:       appt.End,
	})
	if err != nil {
		h.logger.Error("marshal booked event failed", "err", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   apptID,
		EventType:     outbox.EventAppointmentBooked,
		Payload:       payload,
	}); err != nil {
		h.logger.Error("outbox insert failed", "err", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot is no longer available", http.StatusConflict)
			return
		}
		h.logger.Error("commit booking failed", "err", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment booked",
		"appointment_id", apptID,
		"workspace_id", appt.WorkspaceID,
		"entity_id", appt.EntityID,
		"start", appt.Start.Format(time.RFC3339),
	)
	writeJSON(w, http.StatusCreated, createBookingResponse{AppointmentID: apptID, Status: "booked"})
}

func (req createBookingRequest) toAppointment(workspaceID string) (model.Appointment, error) {
	entityID := strings.TrimSpace(req.EntityID)
	if entityID == "" {
		return model.Appointment{}, errors.New("entity_id is required")
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return model.Appointment{}, errors.New("customer_name is required")
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return model.Appointment{}, errors.New("invalid start_time (want RFC3339)")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return model.Appointment{}, errors.New("invalid end_time (want RFC3339)")
	}
	if !end.After(start) {
		return model.Appointment{}, errors.New("end_time must be after start_time")
	}

	return model.Appointment{
		WorkspaceID:   workspaceID,
		EntityID:      entityID,
		ServiceID:     strings.TrimSpace(req.ServiceID),
		CustomerName:  name,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Start:         start,
		End:           end,
		Status:        model.AppointmentStatusBooked,
	}, nil
}

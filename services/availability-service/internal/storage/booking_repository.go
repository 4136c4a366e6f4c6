package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookable/libs/db"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

// BookingRepository owns the conflict-checked booking write path. Slot
// computation is advisory only; this is where "at most one booking per
// entity+time" is actually enforced: an overlap recheck inside the insert
// transaction, backstopped by the exclusion constraint on appointments.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// HasOverlap reports whether any booked appointment for the entity overlaps
// [start, end). Run inside the insert transaction so the recheck and the
// insert see the same snapshot.
func (r *BookingRepository) HasOverlap(ctx context.Context, tx pgx.Tx, entityID string, start, end time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE entity_id = $1
				AND status = 'booked'
				AND start_time < $3
				AND end_time > $2
		)
	`, entityID, start, end).Scan(&exists)
	return exists, err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	id := uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO appointments
			(id, workspace_id, entity_id, service_id, customer_name, customer_email, customer_phone, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, appt.WorkspaceID, appt.EntityID, nullIfEmpty(appt.ServiceID), appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
		appt.Start, appt.End, appt.Status)
	if err != nil {
		return "", err
	}
	return id, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

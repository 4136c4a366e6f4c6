package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/bookable/libs/db"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

// ScheduleRepository is the read surface of the slot engine: bookable
// entities with their policies, recurring windows, blocks, booked
// commitments, and the service catalog.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) GetBookableEntity(ctx context.Context, workspaceID, entityID string) (model.BookableEntity, error) {
	var ent model.BookableEntity
	var kind string
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, workspace_id::text, kind, name, is_active, timezone,
			min_notice_hours, max_advance_days, slot_interval_minutes,
			buffer_before_minutes, buffer_after_minutes
		FROM bookable_entities
		WHERE id = $1 AND workspace_id = $2
	`, entityID, workspaceID).Scan(
		&ent.ID,
		&ent.WorkspaceID,
		&kind,
		&ent.Name,
		&ent.IsActive,
		&ent.Policy.Timezone,
		&ent.Policy.MinNoticeHours,
		&ent.Policy.MaxAdvanceDays,
		&ent.Policy.SlotIntervalMinutes,
		&ent.Policy.BufferBeforeMinutes,
		&ent.Policy.BufferAfterMinutes,
	)
	if err != nil {
		return model.BookableEntity{}, err
	}
	ent.Kind = model.EntityKind(kind)
	return ent, nil
}

func (r *ScheduleRepository) GetAvailabilityWindows(ctx context.Context, entityID string) ([]model.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_minute, end_minute, is_available
		FROM availability_windows
		WHERE entity_id = $1
		ORDER BY weekday, start_minute
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []model.AvailabilityWindow
	for rows.Next() {
		var weekday int
		var w model.AvailabilityWindow
		if err := rows.Scan(&weekday, &w.StartMinute, &w.EndMinute, &w.Available); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return windows, nil
}

func (r *ScheduleRepository) GetBlocks(ctx context.Context, entityID string, from, to time.Time) ([]model.Block, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT starts_at, ends_at, all_day, kind
		FROM entity_blocks
		WHERE entity_id = $1
			AND starts_at < $3
			AND ends_at > $2
		ORDER BY starts_at
	`, entityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.Block
	for rows.Next() {
		var b model.Block
		var kind string
		if err := rows.Scan(&b.Start, &b.End, &b.AllDay, &kind); err != nil {
			return nil, err
		}
		b.Kind = model.BlockKind(kind)
		blocks = append(blocks, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return blocks, nil
}

func (r *ScheduleRepository) GetCommitments(ctx context.Context, entityID string, from, to time.Time) ([]model.Commitment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE entity_id = $1
			AND status = 'booked'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
	`, entityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commitments []model.Commitment
	for rows.Next() {
		var c model.Commitment
		if err := rows.Scan(&c.Start, &c.End); err != nil {
			return nil, err
		}
		commitments = append(commitments, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return commitments, nil
}

func (r *ScheduleRepository) GetService(ctx context.Context, workspaceID, serviceID string) (model.Service, bool, error) {
	var svc model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, workspace_id::text, name, duration_minutes
		FROM workspace_services
		WHERE id = $1 AND workspace_id = $2
	`, serviceID, workspaceID).Scan(&svc.ID, &svc.WorkspaceID, &svc.Name, &svc.DurationMinutes)
	if err != nil {
		if IsNotFound(err) {
			return model.Service{}, false, nil
		}
		return model.Service{}, false, err
	}
	return svc, true, nil
}

func (r *ScheduleRepository) GetDurationOverride(ctx context.Context, entityID, serviceID string) (int, bool, error) {
	var minutes int
	err := r.pool.QueryRow(ctx, `
		SELECT duration_minutes
		FROM service_duration_overrides
		WHERE entity_id = $1 AND service_id = $2
	`, entityID, serviceID).Scan(&minutes)
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return minutes, true, nil
}

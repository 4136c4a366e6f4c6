// Package query exposes the slot query facade used by transport handlers:
// it validates the requested range against the entity's booking policy,
// loads availability inputs, and delegates per-day slot computation to the
// generator.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/slotgen"
)

// MaxRangeDays bounds multi-day queries to keep response size and
// computation sane. Requests beyond it are clamped, not rejected.
const MaxRangeDays = 30

type Facade struct {
	directory   EntityDirectory
	windows     WindowSource
	blocks      BlockSource
	commitments CommitmentSource
	durations   DurationResolver
	clock       Clock
	logger      *slog.Logger
}

func NewFacade(
	directory EntityDirectory,
	windows WindowSource,
	blocks BlockSource,
	commitments CommitmentSource,
	durations DurationResolver,
	clock Clock,
	logger *slog.Logger,
) *Facade {
	if clock == nil {
		clock = SystemClock()
	}
	return &Facade{
		directory:   directory,
		windows:     windows,
		blocks:      blocks,
		commitments: commitments,
		durations:   durations,
		clock:       clock,
		logger:      logger,
	}
}

// DayResult holds one day's slots. Days with zero slots are always present
// in a range result so callers can tell "no availability" from "day not
// requested"; Reason is set when the emptiness has a nameable business
// cause.
type DayResult struct {
	Date   time.Time
	Slots  []model.Slot
	Reason string
}

type Result struct {
	Entity          model.BookableEntity
	Service         model.Service // zero value when no service was requested
	DurationMinutes int
	Days            []DayResult
}

// SingleDay computes the bookable slots for one calendar day. Only the
// year/month/day of date are used; they are interpreted in the entity's
// timezone.
func (f *Facade) SingleDay(ctx context.Context, workspaceID, entityID, serviceID string, date time.Time) (*Result, error) {
	return f.run(ctx, workspaceID, entityID, serviceID, date, 1)
}

// Range computes slots for consecutive days starting at start. days must be
// positive; values above MaxRangeDays are clamped.
func (f *Facade) Range(ctx context.Context, workspaceID, entityID, serviceID string, start time.Time, days int) (*Result, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	if days > MaxRangeDays {
		days = MaxRangeDays
	}
	return f.run(ctx, workspaceID, entityID, serviceID, start, days)
}

func (f *Facade) run(ctx context.Context, workspaceID, entityID, serviceID string, start time.Time, days int) (*Result, error) {
	ent, found, err := f.directory.GetBookableEntity(ctx, workspaceID, entityID)
	if err != nil {
		return nil, fmt.Errorf("get bookable entity: %w", err)
	}
	if !found || !ent.IsActive {
		return nil, ErrNotFound
	}

	svc, durationMinutes, err := f.durations.Resolve(ctx, workspaceID, ent.ID, serviceID)
	if err != nil {
		return nil, err
	}

	loc := ent.Policy.Location()
	now := f.clock.Now().In(loc)
	today := midnight(now)
	lastBookableDay := today.AddDate(0, 0, ent.Policy.MaxAdvanceDays)

	y, m, d := start.Date()
	firstDay := time.Date(y, m, d, 0, 0, 0, 0, loc)

	windows, err := f.windows.GetAvailabilityWindows(ctx, ent.ID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}

	blocks, commitments, err := f.loadExclusions(ctx, ent, firstDay, days, lastBookableDay)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Entity:          ent,
		Service:         svc,
		DurationMinutes: durationMinutes,
		Days:            make([]DayResult, 0, days),
	}

	for i := 0; i < days; i++ {
		// Partial results are not meaningful; abandon the whole query on
		// cancellation.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		day := firstDay.AddDate(0, 0, i)
		switch {
		case day.After(lastBookableDay):
			result.Days = append(result.Days, DayResult{Date: day, Slots: []model.Slot{}, Reason: ReasonOutsideBookingWindow})
		case !weekdayAvailable(windows, day.Weekday()):
			result.Days = append(result.Days, DayResult{Date: day, Slots: []model.Slot{}, Reason: ReasonNoAvailability})
		default:
			slots := slotgen.Generate(day, windows, blocks, commitments, ent.Policy, durationMinutes, now)
			result.Days = append(result.Days, DayResult{Date: day, Slots: slots})
		}
	}

	f.logger.Info("slot query",
		"workspace_id", workspaceID,
		"entity_id", ent.ID,
		"entity_kind", ent.Kind,
		"service_id", serviceID,
		"start", firstDay.Format(time.DateOnly),
		"days", days,
		"slots", totalSlots(result.Days),
	)
	return result, nil
}

// loadExclusions fetches blocks and commitments covering the bookable part
// of the requested span in one round trip each, and buffer-expands the
// commitments per policy. The generator only tests candidates inside a
// single day, so handing it the whole span's exclusions is safe.
func (f *Facade) loadExclusions(ctx context.Context, ent model.BookableEntity, firstDay time.Time, days int, lastBookableDay time.Time) ([]model.Block, []model.Commitment, error) {
	spanEnd := firstDay.AddDate(0, 0, days)
	if limit := lastBookableDay.AddDate(0, 0, 1); spanEnd.After(limit) {
		spanEnd = limit
	}
	if !spanEnd.After(firstDay) {
		return nil, nil, nil
	}

	blocks, err := f.blocks.GetBlocks(ctx, ent.ID, firstDay, spanEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("get blocks: %w", err)
	}

	// Widen the commitment fetch by the buffers so an appointment just
	// outside the span still excludes candidates once expanded.
	commitFrom := firstDay.Add(-time.Duration(ent.Policy.BufferAfterMinutes) * time.Minute)
	commitTo := spanEnd.Add(time.Duration(ent.Policy.BufferBeforeMinutes) * time.Minute)
	raw, err := f.commitments.GetCommitments(ctx, ent.ID, commitFrom, commitTo)
	if err != nil {
		return nil, nil, fmt.Errorf("get commitments: %w", err)
	}
	buffered := make([]model.Commitment, len(raw))
	for i, c := range raw {
		buffered[i] = c.Buffered(ent.Policy)
	}
	return blocks, buffered, nil
}

func weekdayAvailable(windows []model.AvailabilityWindow, weekday time.Weekday) bool {
	for _, w := range windows {
		if w.Weekday == weekday && w.Available && w.StartMinute < w.EndMinute {
			return true
		}
	}
	return false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func totalSlots(days []DayResult) int {
	n := 0
	for _, d := range days {
		n += len(d.Slots)
	}
	return n
}

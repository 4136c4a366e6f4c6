package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type fakeSources struct {
	entity      model.BookableEntity
	entityFound bool
	windows     []model.AvailabilityWindow
	blocks      []model.Block
	commitments []model.Commitment

	commitFrom time.Time
	commitTo   time.Time
}

func (f *fakeSources) GetBookableEntity(_ context.Context, _, _ string) (model.BookableEntity, bool, error) {
	return f.entity, f.entityFound, nil
}

func (f *fakeSources) GetAvailabilityWindows(_ context.Context, _ string) ([]model.AvailabilityWindow, error) {
	return f.windows, nil
}

func (f *fakeSources) GetBlocks(_ context.Context, _ string, _, _ time.Time) ([]model.Block, error) {
	return f.blocks, nil
}

func (f *fakeSources) GetCommitments(_ context.Context, _ string, from, to time.Time) ([]model.Commitment, error) {
	f.commitFrom, f.commitTo = from, to
	return f.commitments, nil
}

type fixedDuration int

func (d fixedDuration) Resolve(_ context.Context, _, _, _ string) (model.Service, int, error) {
	return model.Service{}, int(d), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntity() model.BookableEntity {
	return model.BookableEntity{
		ID:          "ent1",
		WorkspaceID: "ws1",
		Kind:        model.EntityKindStaff,
		Name:        "Alex",
		IsActive:    true,
		Policy: model.BookingPolicy{
			MaxAdvanceDays:      30,
			SlotIntervalMinutes: 30,
			Timezone:            "UTC",
		},
	}
}

func allWeekdays(startMinute, endMinute int) []model.AvailabilityWindow {
	windows := make([]model.AvailabilityWindow, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		windows = append(windows, model.AvailabilityWindow{
			Weekday:     wd,
			StartMinute: startMinute,
			EndMinute:   endMinute,
			Available:   true,
		})
	}
	return windows
}

func newTestFacade(src *fakeSources, clock Clock, duration int) *Facade {
	return NewFacade(src, src, src, src, fixedDuration(duration), clock, testLogger())
}

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // Monday 08:00

func TestSingleDayHappyPath(t *testing.T) {
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows:     allWeekdays(9*60, 11*60),
	}
	f := newTestFacade(src, fixedClock(testNow), 60)

	res, err := f.SingleDay(context.Background(), "ws1", "ent1", "", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 1 {
		t.Fatalf("days = %d, want 1", len(res.Days))
	}
	day := res.Days[0]
	if day.Reason != "" {
		t.Fatalf("unexpected reason %q", day.Reason)
	}
	if len(day.Slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(day.Slots))
	}
	if got := day.Slots[0].Start; !got.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("first slot = %v", got)
	}
}

func TestSingleDayOutsideBookingWindow(t *testing.T) {
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows:     allWeekdays(9*60, 17*60),
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	farFuture := testNow.AddDate(0, 0, 31)
	res, err := f.SingleDay(context.Background(), "ws1", "ent1", "", farFuture)
	if err != nil {
		t.Fatalf("out-of-window must not be an error, got %v", err)
	}
	day := res.Days[0]
	if day.Reason != ReasonOutsideBookingWindow {
		t.Fatalf("reason = %q, want %q", day.Reason, ReasonOutsideBookingWindow)
	}
	if len(day.Slots) != 0 {
		t.Fatalf("expected empty slots, got %d", len(day.Slots))
	}
}

func TestSingleDayNoAvailability(t *testing.T) {
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows: []model.AvailabilityWindow{
			{Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 17 * 60, Available: true},
		},
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	res, err := f.SingleDay(context.Background(), "ws1", "ent1", "", testNow) // a Monday
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Days[0].Reason != ReasonNoAvailability {
		t.Fatalf("reason = %q, want %q", res.Days[0].Reason, ReasonNoAvailability)
	}
}

func TestRangeRejectsNonPositiveDays(t *testing.T) {
	src := &fakeSources{entity: testEntity(), entityFound: true}
	f := newTestFacade(src, fixedClock(testNow), 30)

	for _, days := range []int{0, -1} {
		_, err := f.Range(context.Background(), "ws1", "ent1", "", testNow, days)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("days=%d: err = %v, want ErrInvalidInput", days, err)
		}
	}
}

func TestRangeClampsToMax(t *testing.T) {
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows:     allWeekdays(9*60, 10*60),
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	res, err := f.Range(context.Background(), "ws1", "ent1", "", testNow, 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != MaxRangeDays {
		t.Fatalf("days = %d, want clamp to %d", len(res.Days), MaxRangeDays)
	}
}

func TestRangeIncludesZeroSlotDays(t *testing.T) {
	// Weekend off: the Saturday and Sunday inside the range still appear,
	// with a reason, so callers can render them.
	windows := []model.AvailabilityWindow{}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		windows = append(windows, model.AvailabilityWindow{
			Weekday: wd, StartMinute: 9 * 60, EndMinute: 10 * 60, Available: true,
		})
	}
	src := &fakeSources{entity: testEntity(), entityFound: true, windows: windows}
	f := newTestFacade(src, fixedClock(testNow), 30)

	res, err := f.Range(context.Background(), "ws1", "ent1", "", testNow, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(res.Days))
	}
	var offDays int
	for _, d := range res.Days {
		switch d.Date.Weekday() {
		case time.Saturday, time.Sunday:
			offDays++
			if d.Reason != ReasonNoAvailability {
				t.Fatalf("%s: reason = %q, want %q", d.Date.Weekday(), d.Reason, ReasonNoAvailability)
			}
		}
	}
	if offDays != 2 {
		t.Fatalf("weekend days in range = %d, want 2", offDays)
	}
}

func TestRangeUnknownOrInactiveEntity(t *testing.T) {
	missing := &fakeSources{entityFound: false}
	f := newTestFacade(missing, fixedClock(testNow), 30)
	if _, err := f.SingleDay(context.Background(), "ws1", "nope", "", testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing entity: err = %v, want ErrNotFound", err)
	}

	inactive := testEntity()
	inactive.IsActive = false
	src := &fakeSources{entity: inactive, entityFound: true}
	f = newTestFacade(src, fixedClock(testNow), 30)
	if _, err := f.SingleDay(context.Background(), "ws1", "ent1", "", testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive entity: err = %v, want ErrNotFound", err)
	}
}

func TestRangeCancelledContext(t *testing.T) {
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows:     allWeekdays(9*60, 17*60),
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.Range(ctx, "ws1", "ent1", "", testNow, 7)
	if err == nil {
		t.Fatalf("expected cancellation error, got result with %d days", len(res.Days))
	}
	if res != nil {
		t.Fatalf("partial result must be discarded on cancellation")
	}
}

func TestCommitmentFetchWidenedByBuffers(t *testing.T) {
	ent := testEntity()
	ent.Policy.BufferBeforeMinutes = 10
	ent.Policy.BufferAfterMinutes = 20
	src := &fakeSources{entity: ent, entityFound: true, windows: allWeekdays(9*60, 10*60)}
	f := newTestFacade(src, fixedClock(testNow), 30)

	if _, err := f.SingleDay(context.Background(), "ws1", "ent1", "", testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dayStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantFrom := dayStart.Add(-20 * time.Minute)
	wantTo := dayStart.AddDate(0, 0, 1).Add(10 * time.Minute)
	if !src.commitFrom.Equal(wantFrom) {
		t.Fatalf("commitment fetch from = %v, want %v", src.commitFrom, wantFrom)
	}
	if !src.commitTo.Equal(wantTo) {
		t.Fatalf("commitment fetch to = %v, want %v", src.commitTo, wantTo)
	}
}

func TestRangeAllDayBlockEmptiesOnlyItsDay(t *testing.T) {
	// An all-day holiday on the third day of the range: that day comes back
	// empty, every other day keeps its slots.
	holiday := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) // Wednesday
	src := &fakeSources{
		entity:      testEntity(),
		entityFound: true,
		windows:     allWeekdays(9*60, 11*60),
		blocks: []model.Block{{
			Start:  holiday,
			End:    holiday.AddDate(0, 0, 1),
			AllDay: true,
			Kind:   model.BlockKindHoliday,
		}},
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	res, err := f.Range(context.Background(), "ws1", "ent1", "", testNow, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 5 {
		t.Fatalf("days = %d, want 5", len(res.Days))
	}
	for _, d := range res.Days {
		if d.Date.Equal(holiday) {
			if len(d.Slots) != 0 {
				t.Fatalf("holiday %s should have no slots, got %d", d.Date.Format(time.DateOnly), len(d.Slots))
			}
			continue
		}
		if len(d.Slots) != 4 {
			t.Fatalf("day %s: slots = %d, want 4", d.Date.Format(time.DateOnly), len(d.Slots))
		}
	}
}

func TestBufferedCommitmentRemovesNeighborSlot(t *testing.T) {
	ent := testEntity()
	ent.Policy.BufferAfterMinutes = 15
	src := &fakeSources{
		entity:      ent,
		entityFound: true,
		windows:     allWeekdays(9*60, 11*60),
		commitments: []model.Commitment{{
			Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		}},
	}
	f := newTestFacade(src, fixedClock(testNow), 30)

	res, err := f.SingleDay(context.Background(), "ws1", "ent1", "", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 09:00 and 09:30 gone (direct + buffer overlap); 10:00 onward survive.
	slots := res.Days[0].Slots
	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	if got := slots[0].Start; !got.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("first surviving slot = %v, want 10:00", got)
	}
}

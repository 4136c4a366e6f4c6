package slotgen

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

// Generate computes the bookable slots for one calendar day.
//
// day must be local midnight in the policy's timezone and now must already be
// converted into that same timezone. Commitments are expected to be
// buffer-expanded by the caller; blocks are used as-is, except that an
// all-day block is widened to the full local days its own interval covers. The result is ordered by start time with duplicate
// start times (from overlapping windows) collapsed.
//
// Range admissibility (today..today+maxAdvanceDays) is the caller's concern;
// the per-slot minimum-notice floor is applied here because a day can be
// admissible while its early slots are not.
func Generate(
	day time.Time,
	windows []model.AvailabilityWindow,
	blocks []model.Block,
	commitments []model.Commitment,
	policy model.BookingPolicy,
	durationMinutes int,
	now time.Time,
) []model.Slot {
	if durationMinutes <= 0 {
		return []model.Slot{}
	}
	duration := time.Duration(durationMinutes) * time.Minute

	step := time.Duration(policy.SlotIntervalMinutes) * time.Minute
	if step <= 0 {
		step = duration
	}

	noticeFloor := now.Add(time.Duration(policy.MinNoticeHours) * time.Hour)
	busy := busyIntervals(day, blocks, commitments)

	slots := []model.Slot{}
	weekday := day.Weekday()
	for _, win := range windows {
		if win.Weekday != weekday || !win.Available {
			continue
		}
		if win.StartMinute >= win.EndMinute {
			continue
		}
		winStart := atMinute(day, win.StartMinute)
		winEnd := atMinute(day, win.EndMinute)

		// The grid is anchored at the window start: the last candidate is the
		// largest winStart + k*step with candidate+duration <= winEnd.
		for cursor := winStart; !cursor.Add(duration).After(winEnd); cursor = cursor.Add(step) {
			if cursor.Before(noticeFloor) {
				continue
			}
			end := cursor.Add(duration)
			if overlapsAny(cursor, end, busy) {
				continue
			}
			slots = append(slots, model.Slot{Start: cursor, End: end})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return dedupeByStart(slots)
}

type interval struct {
	start time.Time
	end   time.Time
}

func busyIntervals(day time.Time, blocks []model.Block, commitments []model.Commitment) []interval {
	busy := make([]interval, 0, len(blocks)+len(commitments))
	for _, b := range blocks {
		if !b.End.After(b.Start) {
			continue
		}
		if b.AllDay {
			// Widen to the full local days the block's own interval touches.
			// Blocks on other days drop out in the overlap test as usual.
			busy = append(busy, allDaySpan(b, day.Location()))
			continue
		}
		busy = append(busy, interval{start: b.Start, end: b.End})
	}
	for _, c := range commitments {
		if c.End.After(c.Start) {
			busy = append(busy, interval{start: c.Start, end: c.End})
		}
	}
	return busy
}

// allDaySpan expands a block to local midnight boundaries: from the midnight
// opening the day of Start through the midnight closing the day End falls in
// (an End exactly on midnight closes there).
func allDaySpan(b model.Block, loc *time.Location) interval {
	start := midnightOf(b.Start.In(loc))
	end := b.End.In(loc)
	closing := midnightOf(end)
	if end.After(closing) {
		closing = closing.AddDate(0, 0, 1)
	}
	return interval{start: start, end: closing}
}

func overlapsAny(start, end time.Time, busy []interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.start,b.end) iff start < b.end && b.start < end.
		if start.Before(b.end) && b.start.Before(end) {
			return true
		}
	}
	return false
}

func midnightOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// atMinute materializes a minute-of-day offset on the given local day.
// Built with time.Date rather than Add so DST transitions keep wall-clock
// semantics.
func atMinute(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, day.Location())
}

func dedupeByStart(slots []model.Slot) []model.Slot {
	if len(slots) < 2 {
		return slots
	}
	out := slots[:1]
	for _, s := range slots[1:] {
		if s.Start.Equal(out[len(out)-1].Start) {
			continue
		}
		out = append(out, s)
	}
	return out
}

package model

import "time"

type EntityKind string

const (
	EntityKindCalendar EntityKind = "calendar"
	EntityKindStaff    EntityKind = "staff"
)

// BookableEntity is anything a customer can book time against: a shared
// calendar or an individual staff member. Both kinds flow through the same
// slot computation; only the HTTP surface distinguishes them.
type BookableEntity struct {
	ID          string
	WorkspaceID string
	Kind        EntityKind
	Name        string
	IsActive    bool
	Policy      BookingPolicy
}

// BookingPolicy is the per-entity booking configuration. It is loaded with
// the entity at the start of a query and treated as immutable for the
// query's duration.
type BookingPolicy struct {
	MinNoticeHours      int
	MaxAdvanceDays      int
	SlotIntervalMinutes int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	Timezone            string
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		MinNoticeHours:      0,
		MaxAdvanceDays:      30,
		SlotIntervalMinutes: 30,
		BufferBeforeMinutes: 0,
		BufferAfterMinutes:  0,
		Timezone:            "UTC",
	}
}

// Location resolves the policy's IANA timezone, falling back to UTC when the
// name is empty or unknown.
func (p BookingPolicy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AvailabilityWindow is a recurring weekly opening, expressed as minutes
// after local midnight. StartMinute < EndMinute always; a window never
// crosses midnight (an overnight shift is stored as two rows).
type AvailabilityWindow struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Available   bool
}

type BlockKind string

const (
	BlockKindBusy    BlockKind = "busy"
	BlockKindTimeOff BlockKind = "time_off"
	BlockKindHoliday BlockKind = "holiday"
)

// Block is a one-off exclusion period with half-open [Start, End) semantics.
// An AllDay block is widened to the full local days its interval touches.
type Block struct {
	Start  time.Time
	End    time.Time
	AllDay bool
	Kind   BlockKind
}

// Commitment is an already-booked appointment interval, read-only from the
// engine's perspective. Buffer expansion happens at query time, before the
// generator runs.
type Commitment struct {
	Start time.Time
	End   time.Time
}

// Buffered widens the commitment by the policy's pre/post buffers.
func (c Commitment) Buffered(p BookingPolicy) Commitment {
	return Commitment{
		Start: c.Start.Add(-time.Duration(p.BufferBeforeMinutes) * time.Minute),
		End:   c.End.Add(time.Duration(p.BufferAfterMinutes) * time.Minute),
	}
}

type Service struct {
	ID              string
	WorkspaceID     string
	Name            string
	DurationMinutes int
}

// Slot is the sole externally visible output of the engine. End-Start equals
// the requested duration exactly; buffers affect occupancy checks only.
type Slot struct {
	Start time.Time
	End   time.Time
}

const (
	AppointmentStatusBooked    = "booked"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment is a booked reservation against an entity. The slot engine
// only ever reads these (as commitments); writes go through the
// conflict-checked booking path.
type Appointment struct {
	ID            string
	WorkspaceID   string
	EntityID      string
	ServiceID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Start         time.Time
	End           time.Time
	Status        string
	CreatedAt     time.Time
}

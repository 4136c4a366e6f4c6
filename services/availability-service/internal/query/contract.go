package query

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

// EntityDirectory resolves a bookable entity inside a workspace. found is
// false when the entity does not exist; that is not an error.
type EntityDirectory interface {
	GetBookableEntity(ctx context.Context, workspaceID, entityID string) (model.BookableEntity, bool, error)
}

// WindowSource supplies the recurring weekly availability of an entity.
type WindowSource interface {
	GetAvailabilityWindows(ctx context.Context, entityID string) ([]model.AvailabilityWindow, error)
}

// BlockSource supplies one-off exclusion intervals overlapping [from, to).
type BlockSource interface {
	GetBlocks(ctx context.Context, entityID string, from, to time.Time) ([]model.Block, error)
}

// CommitmentSource supplies raw, unbuffered appointment intervals
// overlapping [from, to). The facade applies policy buffers.
type CommitmentSource interface {
	GetCommitments(ctx context.Context, entityID string, from, to time.Time) ([]model.Commitment, error)
}

// DurationResolver maps an optional service id to an effective duration.
type DurationResolver interface {
	Resolve(ctx context.Context, workspaceID, entityID, serviceID string) (model.Service, int, error)
}

// Clock exists so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

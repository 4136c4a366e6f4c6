// Package policy resolves the effective duration of a requested service for
// a bookable entity.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

// DefaultDurationMinutes applies when no service is requested at all.
const DefaultDurationMinutes = 60

// ErrServiceNotFound is returned when a service id was explicitly requested
// but does not exist in the workspace. Absence of a service id is not an
// error.
var ErrServiceNotFound = errors.New("service not found")

// ServiceCatalog is the read surface the resolver needs from storage.
type ServiceCatalog interface {
	GetService(ctx context.Context, workspaceID, serviceID string) (model.Service, bool, error)
	GetDurationOverride(ctx context.Context, entityID, serviceID string) (int, bool, error)
}

type DurationResolver struct {
	catalog ServiceCatalog
}

func NewDurationResolver(catalog ServiceCatalog) *DurationResolver {
	return &DurationResolver{catalog: catalog}
}

// Resolve maps an optional service id to an effective duration in minutes.
// Chain: per-entity override, then the service's base duration, then the
// fixed default when no service was requested.
func (r *DurationResolver) Resolve(ctx context.Context, workspaceID, entityID, serviceID string) (model.Service, int, error) {
	if serviceID == "" {
		return model.Service{}, DefaultDurationMinutes, nil
	}

	svc, found, err := r.catalog.GetService(ctx, workspaceID, serviceID)
	if err != nil {
		return model.Service{}, 0, fmt.Errorf("get service: %w", err)
	}
	if !found {
		return model.Service{}, 0, ErrServiceNotFound
	}

	if override, ok, err := r.catalog.GetDurationOverride(ctx, entityID, serviceID); err != nil {
		return model.Service{}, 0, fmt.Errorf("get duration override: %w", err)
	} else if ok && override > 0 {
		return svc, override, nil
	}

	if svc.DurationMinutes > 0 {
		return svc, svc.DurationMinutes, nil
	}
	return svc, DefaultDurationMinutes, nil
}

// Package directory resolves bookable entities. The default provider reads
// the local store; deployments that keep the workspace directory in a
// separate service can swap in the gRPC provider (protogen build).
package directory

import (
	"context"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/storage"
)

type Provider interface {
	// GetBookableEntity returns the entity with its booking policy. found is
	// false when the entity does not exist in the workspace.
	GetBookableEntity(ctx context.Context, workspaceID, entityID string) (model.BookableEntity, bool, error)
}

type pgProvider struct {
	repo *storage.ScheduleRepository
}

func NewPgProvider(repo *storage.ScheduleRepository) Provider {
	return &pgProvider{repo: repo}
}

func (p *pgProvider) GetBookableEntity(ctx context.Context, workspaceID, entityID string) (model.BookableEntity, bool, error) {
	ent, err := p.repo.GetBookableEntity(ctx, workspaceID, entityID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.BookableEntity{}, false, nil
		}
		return model.BookableEntity{}, false, err
	}
	return ent, true, nil
}

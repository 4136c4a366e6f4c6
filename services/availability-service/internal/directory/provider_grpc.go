//go:build protogen

package directory

import (
	"context"

	"github.com/md-rashed-zaman/bookable/libs/grpcx"
	directoryv1 "github.com/md-rashed-zaman/bookable/protos/gen/directory/v1"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type grpcProvider struct {
	client directoryv1.WorkspaceDirectoryClient
}

// NewRemoteProvider dials the workspace directory service. An empty addr
// disables the remote provider.
func NewRemoteProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(addr)
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: directoryv1.NewWorkspaceDirectoryClient(conn)}, nil
}

func (p *grpcProvider) GetBookableEntity(ctx context.Context, workspaceID, entityID string) (model.BookableEntity, bool, error) {
	resp, err := p.client.GetBookableEntity(ctx, &directoryv1.BookableEntityRequest{
		WorkspaceId: workspaceID,
		EntityId:    entityID,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.BookableEntity{}, false, nil
		}
		return model.BookableEntity{}, false, err
	}

	ent := model.BookableEntity{
		ID:          resp.GetEntityId(),
		WorkspaceID: resp.GetWorkspaceId(),
		Kind:        model.EntityKind(resp.GetKind()),
		Name:        resp.GetName(),
		IsActive:    resp.GetIsActive(),
		Policy: model.BookingPolicy{
			MinNoticeHours:      int(resp.GetMinNoticeHours()),
			MaxAdvanceDays:      int(resp.GetMaxAdvanceDays()),
			SlotIntervalMinutes: int(resp.GetSlotIntervalMinutes()),
			BufferBeforeMinutes: int(resp.GetBufferBeforeMinutes()),
			BufferAfterMinutes:  int(resp.GetBufferAfterMinutes()),
			Timezone:            resp.GetTimezone(),
		},
	}
	return ent, true, nil
}

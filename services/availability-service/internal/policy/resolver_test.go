package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/model"
)

type fakeCatalog struct {
	services  map[string]model.Service
	overrides map[string]int
	err       error
}

func (f *fakeCatalog) GetService(_ context.Context, workspaceID, serviceID string) (model.Service, bool, error) {
	if f.err != nil {
		return model.Service{}, false, f.err
	}
	svc, ok := f.services[serviceID]
	if !ok || svc.WorkspaceID != workspaceID {
		return model.Service{}, false, nil
	}
	return svc, true, nil
}

func (f *fakeCatalog) GetDurationOverride(_ context.Context, entityID, serviceID string) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	mins, ok := f.overrides[entityID+"/"+serviceID]
	return mins, ok, nil
}

func TestResolveNoServiceUsesDefault(t *testing.T) {
	r := NewDurationResolver(&fakeCatalog{})
	svc, mins, err := r.Resolve(context.Background(), "ws1", "ent1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mins != DefaultDurationMinutes {
		t.Fatalf("minutes = %d, want %d", mins, DefaultDurationMinutes)
	}
	if svc.ID != "" {
		t.Fatalf("expected zero service, got %+v", svc)
	}
}

func TestResolveUnknownService(t *testing.T) {
	r := NewDurationResolver(&fakeCatalog{services: map[string]model.Service{}})
	_, _, err := r.Resolve(context.Background(), "ws1", "ent1", "missing")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestResolveServiceFromOtherWorkspaceHidden(t *testing.T) {
	catalog := &fakeCatalog{services: map[string]model.Service{
		"svc1": {ID: "svc1", WorkspaceID: "other", DurationMinutes: 45},
	}}
	r := NewDurationResolver(catalog)
	_, _, err := r.Resolve(context.Background(), "ws1", "ent1", "svc1")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestResolveOverrideWins(t *testing.T) {
	catalog := &fakeCatalog{
		services: map[string]model.Service{
			"svc1": {ID: "svc1", WorkspaceID: "ws1", Name: "Cut", DurationMinutes: 45},
		},
		overrides: map[string]int{"ent1/svc1": 75},
	}
	r := NewDurationResolver(catalog)
	svc, mins, err := r.Resolve(context.Background(), "ws1", "ent1", "svc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mins != 75 {
		t.Fatalf("minutes = %d, want 75 (override)", mins)
	}
	if svc.ID != "svc1" {
		t.Fatalf("service = %+v, want svc1", svc)
	}
}

func TestResolveBaseDuration(t *testing.T) {
	catalog := &fakeCatalog{services: map[string]model.Service{
		"svc1": {ID: "svc1", WorkspaceID: "ws1", DurationMinutes: 45},
	}}
	r := NewDurationResolver(catalog)
	_, mins, err := r.Resolve(context.Background(), "ws1", "ent1", "svc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mins != 45 {
		t.Fatalf("minutes = %d, want 45", mins)
	}
}

func TestResolveZeroBaseFallsBack(t *testing.T) {
	catalog := &fakeCatalog{services: map[string]model.Service{
		"svc1": {ID: "svc1", WorkspaceID: "ws1"},
	}}
	r := NewDurationResolver(catalog)
	_, mins, err := r.Resolve(context.Background(), "ws1", "ent1", "svc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mins != DefaultDurationMinutes {
		t.Fatalf("minutes = %d, want default %d", mins, DefaultDurationMinutes)
	}
}

func TestResolveCatalogError(t *testing.T) {
	sentinel := errors.New("db down")
	r := NewDurationResolver(&fakeCatalog{err: sentinel})
	_, _, err := r.Resolve(context.Background(), "ws1", "ent1", "svc1")
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped %v", err, sentinel)
	}
}

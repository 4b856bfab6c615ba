package module

import (
	"context"

	"mdms/internal/modkit/repokit"
	mediadom "mdms/internal/services/media/domain"
	mediasvc "mdms/internal/services/media/service"

	"github.com/google/uuid"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptMediaPort adapts the media service to the domain port interface
type adaptMediaPort struct{ svc mediasvc.Service }

var _ mediadom.ServicePort = adaptMediaPort{}

func (a adaptMediaPort) Store(ctx context.Context, q repokit.Queryer, it mediadom.Item, data []byte) (mediadom.Item, error) {
	return a.svc.Store(ctx, q, it, data)
}

func (a adaptMediaPort) RecordDuplicate(ctx context.Context, q repokit.Queryer, it mediadom.Item, canonical uuid.UUID) (mediadom.Item, error) {
	return a.svc.RecordDuplicate(ctx, q, it, canonical)
}

func (a adaptMediaPort) Abandon(ctx context.Context, it mediadom.Item) { a.svc.Abandon(ctx, it) }

func (a adaptMediaPort) Get(ctx context.Context, id uuid.UUID) (mediadom.Item, error) {
	return a.svc.Get(ctx, id)
}

func (a adaptMediaPort) Retrieve(ctx context.Context, id uuid.UUID) (mediadom.Payload, error) {
	return a.svc.Retrieve(ctx, id)
}

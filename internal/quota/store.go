package quota

import (
	"context"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// Store persists QuotaState between cycles.
type Store interface {
	Load(ctx context.Context) (model.QuotaState, error)
	Save(ctx context.Context, state model.QuotaState) error
	Name() string
}

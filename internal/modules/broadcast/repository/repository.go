package repository

import (
	"context"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
)

// Repository stores dispatch records. List returns newest first; a limit of
// zero or less returns everything.
type Repository interface {
	Create(ctx context.Context, record *domain.Record) error
	Update(ctx context.Context, record *domain.Record) error
	Get(ctx context.Context, id string) (*domain.Record, error)
	List(ctx context.Context, limit int) ([]*domain.Record, error)
	Pending(ctx context.Context) ([]*domain.Record, error)
	Close() error
}

package repository

import (
	"context"

	"github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
)

// Repository loads and saves the whole settings document. Writes are
// last-write-wins.
type Repository interface {
	Load() (*domain.Document, error)
	Save(doc *domain.Document) error
}

// Watcher is implemented by repositories that can report external edits.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

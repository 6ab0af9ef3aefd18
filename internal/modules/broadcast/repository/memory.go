package repository

import (
	"context"
	"sync"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Memory keeps records in insertion order for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	records []*domain.Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Create(_ context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indexLocked(record.ID); ok {
		return oops.With("record_id", record.ID).Errorf("record already exists")
	}
	m.records = append(m.records, clone(record))
	return nil
}

func (m *Memory) Update(_ context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.indexLocked(record.ID)
	if !ok {
		return oops.With("record_id", record.ID).Wrap(errors.ErrRecordNotFound)
	}
	m.records[i] = clone(record)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.indexLocked(id)
	if !ok {
		return nil, oops.With("record_id", id).Wrap(errors.ErrRecordNotFound)
	}
	return clone(m.records[i]), nil
}

func (m *Memory) List(_ context.Context, limit int) ([]*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, clone(m.records[i]))
	}
	return result, nil
}

func (m *Memory) Pending(_ context.Context) ([]*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pending := lo.Filter(m.records, func(r *domain.Record, _ int) bool {
		return r.Pending()
	})
	return lo.Map(pending, func(r *domain.Record, _ int) *domain.Record {
		return clone(r)
	}), nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) indexLocked(id string) (int, bool) {
	_, i, ok := lo.FindIndexOf(m.records, func(r *domain.Record) bool {
		return r.ID == id
	})
	return i, ok
}

func clone(r *domain.Record) *domain.Record {
	c := *r
	c.Blocks = append(c.Blocks[:0:0], r.Blocks...)
	if r.SentAt != nil {
		t := *r.SentAt
		c.SentAt = &t
	}
	if r.ScheduledFor != nil {
		t := *r.ScheduledFor
		c.ScheduledFor = &t
	}
	return &c
}

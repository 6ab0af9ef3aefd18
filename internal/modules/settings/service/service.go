package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/settings/repository"
	"github.com/samber/oops"
)

// Listener receives every newly published document.
type Listener func(doc *domain.Document)

// Service owns the live settings document. Published documents are
// immutable; Update works on a clone and swaps it in after a successful save.
type Service struct {
	repo    repository.Repository
	current atomic.Pointer[domain.Document]

	mu        sync.Mutex
	listeners []Listener

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(repo repository.Repository) (*Service, error) {
	doc, err := repo.Load()
	if err != nil {
		return nil, oops.With("context", "failed to load settings").Wrap(err)
	}
	s := &Service{repo: repo}
	s.current.Store(doc)
	return s, nil
}

// Current returns the published document. Callers must not modify it.
func (s *Service) Current() *domain.Document {
	return s.current.Load()
}

// Subscribe registers fn and immediately calls it with the current document.
func (s *Service) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	doc := s.current.Load()
	s.mu.Unlock()
	fn(doc)
}

// Update applies fn to a copy of the document, saves it and publishes it.
// Nothing is published when fn or the save fails.
func (s *Service) Update(fn func(doc *domain.Document) error) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Load().Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.repo.Save(next); err != nil {
		return nil, oops.With("context", "failed to save settings").Wrap(err)
	}

	s.publishLocked(next)
	return next, nil
}

// Reload re-reads the document from the repository and publishes it.
func (s *Service) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load()
	if err != nil {
		return oops.With("context", "failed to reload settings").Wrap(err)
	}
	s.publishLocked(doc)
	return nil
}

func (s *Service) publishLocked(doc *domain.Document) {
	s.current.Store(doc)
	for _, fn := range s.listeners {
		fn(doc)
	}
}

// Start watches the repository for external edits when it supports that.
func (s *Service) Start(ctx context.Context) {
	watcher, ok := s.repo.(repository.Watcher)
	if !ok {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := watcher.Watch(ctx, func() {
			if err := s.Reload(); err != nil {
				slog.Error("Failed to reload settings", "error", err)
				return
			}
			slog.Info("Settings reloaded from disk")
		})
		if err != nil {
			slog.Error("Settings watcher stopped", "error", err)
		}
	}()
}

func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

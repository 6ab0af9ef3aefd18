package repository

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
)

const watchDebounce = 250 * time.Millisecond

// FileStorage keeps the settings document in a single JSON file.
type FileStorage struct {
	path    string
	mu      sync.RWMutex
	written [sha256.Size]byte
}

// NewFileStorage creates the parent directory of path if needed.
func NewFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, oops.With("path", path, "context", "failed to create settings directory").Wrap(err)
	}
	return &FileStorage{path: path}, nil
}

func (s *FileStorage) Path() string {
	return s.path
}

// Load reads the document, writing the defaults first when the file does
// not exist yet.
func (s *FileStorage) Load() (*domain.Document, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			doc := domain.Default()
			if err := s.Save(doc); err != nil {
				return nil, err
			}
			return doc, nil
		}
		return nil, oops.With("path", s.path, "context", "failed to read settings").Wrap(err)
	}

	doc := domain.Default()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, oops.With("path", s.path, "context", "failed to unmarshal settings").Wrap(err)
	}
	return doc, nil
}

// Save replaces the file atomically through a temp file and rename.
func (s *FileStorage) Save(doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oops.With("path", s.path, "context", "failed to marshal settings").Wrap(err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", tmp, "context", "failed to write settings").Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path, "context", "failed to replace settings").Wrap(err)
	}

	s.written = sha256.Sum256(data)
	return nil
}

// Watch calls onChange when the file is modified by someone other than this
// process. It blocks until ctx is done.
func (s *FileStorage) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.With("context", "failed to create watcher").Wrap(err)
	}
	defer watcher.Close()

	// Watch the directory: editors and Save both replace the file.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return oops.With("dir", dir, "context", "failed to watch settings directory").Wrap(err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				if s.changedExternally() {
					onChange()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Settings watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileStorage) changedExternally() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) != s.written
}

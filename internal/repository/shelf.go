package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"moneyshelf/internal/models"
	"moneyshelf/internal/observability"

	"github.com/google/uuid"
)

// ShelfStore persists the whole shelf collection as one JSON document.
// Read-modify-write cycles are serialised by an in-process mutex and files are
// replaced atomically, so readers never see a partial document. Separate
// processes sharing the file still race with last-writer-wins.
type ShelfStore struct {
	path string
	mu   sync.Mutex
}

// NewShelfStore returns a store for the document at path.
func NewShelfStore(path string) *ShelfStore {
	return &ShelfStore{path: path}
}

// Path is the location of the backing file.
func (s *ShelfStore) Path() string {
	return s.path
}

// Load reads the document, creating it with every fixed shelf empty on first use.
func (s *ShelfStore) Load(ctx context.Context) (models.Shelves, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save replaces the document with shelves.
func (s *ShelfStore) Save(ctx context.Context, shelves models.Shelves) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, shelves)
}

// Update loads the document, applies fn and writes the result, holding the
// lock across the whole cycle. Nothing is written when fn returns an error.
func (s *ShelfStore) Update(ctx context.Context, fn func(models.Shelves) error) (models.Shelves, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shelves, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(shelves); err != nil {
		return nil, err
	}
	if err := s.write(ctx, shelves); err != nil {
		return nil, err
	}
	return shelves, nil
}

func (s *ShelfStore) load(ctx context.Context) (models.Shelves, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		shelves := models.NewShelves()
		if err := s.write(ctx, shelves); err != nil {
			return nil, err
		}
		return shelves, nil
	}
	if err != nil {
		return nil, models.NewPersistenceError(fmt.Errorf("read %s: %w", s.path, err))
	}

	shelves := models.Shelves{}
	if err := json.Unmarshal(raw, &shelves); err != nil {
		return nil, models.NewPersistenceError(fmt.Errorf("decode %s: %w", s.path, err))
	}
	for _, name := range models.FixedShelves {
		if shelves[name] == nil {
			shelves[name] = []models.Book{}
		}
	}
	return shelves, nil
}

func (s *ShelfStore) write(ctx context.Context, shelves models.Shelves) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.ShelfWrites.WithLabelValues(outcome).Inc()
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(shelves); err != nil {
		return models.NewPersistenceError(fmt.Errorf("encode shelves: %w", err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.NewPersistenceError(fmt.Errorf("create %s: %w", dir, err))
	}

	tmp := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return models.NewPersistenceError(fmt.Errorf("write %s: %w", tmp, err))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return models.NewPersistenceError(fmt.Errorf("replace %s: %w", s.path, err))
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/your-org/facecat/internal/models"
)

// Store is the durable backend for the ordered person-record collection.
// The whole collection is loaded once at startup and rewritten wholesale
// at persist time; records are never streamed incrementally.
type Store interface {
	Load(ctx context.Context) ([]models.PersonRecord, error)
	Persist(ctx context.Context, records []models.PersonRecord) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// FaceStore holds the representative face-image artifacts referenced by
// person records.
type FaceStore interface {
	// Put stores the JPEG for a person and returns the reference recorded
	// in the catalog.
	Put(ctx context.Context, personID int, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Remove(ctx context.Context, ref string) error
}

// FileStore persists the catalog as a single JSON document. Loading a
// just-persisted catalog reproduces identical records in identical order.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the full catalog. A missing file is an empty catalog; a
// malformed or out-of-order file is a hard error, never silently repaired.
func (s *FileStore) Load(ctx context.Context) ([]models.PersonRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	var records []models.PersonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}

	if err := validateOrder(records); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.path, err)
	}

	return records, nil
}

func (s *FileStore) Persist(ctx context.Context, records []models.PersonRecord) error {
	if records == nil {
		records = []models.PersonRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove catalog %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("catalog dir %s: %w", dir, err)
	}
	return nil
}

func (s *FileStore) Close() {}

// validateOrder enforces the durable-ID invariant: positive, strictly
// increasing in collection order, never duplicated.
func validateOrder(records []models.PersonRecord) error {
	prev := 0
	for i, r := range records {
		if r.ID <= prev {
			return fmt.Errorf("corrupt record order at index %d: id %d after %d", i, r.ID, prev)
		}
		prev = r.ID
	}
	return nil
}

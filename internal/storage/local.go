// Package storage provides face-artifact backends: a local directory (the
// default) and a MinIO bucket. Both satisfy catalog.FaceStore.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalFaceStore writes face JPEGs under a single directory, one file per
// person: person_<id>.jpg. The reference recorded in the catalog is the
// file path.
type LocalFaceStore struct {
	dir string
}

func NewLocalFaceStore(dir string) (*LocalFaceStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create faces dir: %w", err)
	}
	return &LocalFaceStore{dir: dir}, nil
}

func (s *LocalFaceStore) Put(ctx context.Context, personID int, data []byte) (string, error) {
	ref := filepath.Join(s.dir, fmt.Sprintf("person_%d.jpg", personID))
	if err := os.WriteFile(ref, data, 0o644); err != nil {
		return "", fmt.Errorf("write face %s: %w", ref, err)
	}
	return ref, nil
}

func (s *LocalFaceStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty face reference")
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read face %s: %w", ref, err)
	}
	return data, nil
}

func (s *LocalFaceStore) Remove(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	// Refuse to delete outside the faces dir.
	abs, err := filepath.Abs(ref)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, absDir+string(os.PathSeparator)) {
		return fmt.Errorf("face reference %s outside faces dir", ref)
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove face %s: %w", ref, err)
	}
	return nil
}

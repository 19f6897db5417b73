package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"questline/server/fsname"
)

// FileStore keeps one JSON file per user and kind under dir/<user>/.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID string, kind Kind) string {
	return filepath.Join(s.dir, fsname.Encode(userID), string(kind)+".json")
}

func (s *FileStore) Load(ctx context.Context, userID string, kind Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(userID, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", kind, err)
	}
	return b, nil
}

// Save writes through a temp file and renames it into place so a crash never
// leaves a half-written snapshot.
func (s *FileStore) Save(ctx context.Context, userID string, kind Kind, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(userID, kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create user snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s snapshot: %w", kind, err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Delete(ctx context.Context, userID string, kind Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(userID, kind))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s snapshot: %w", kind, err)
	}
	return nil
}

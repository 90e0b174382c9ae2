package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore writes one YAML document per router into a directory.
// Files are replaced atomically through a rename.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Join(ErrSaveFailed, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(routerID string) string {
	return filepath.Join(f.dir, filepath.Base(routerID)+".yaml")
}

func (f *FileStore) Save(_ context.Context, s Snapshot) error {
	if s.RouterID == "" {
		return ErrEmptyRouterID
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Join(ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	if err := os.Rename(tmp.Name(), f.path(s.RouterID)); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, routerID string) (Snapshot, error) {
	data, err := os.ReadFile(f.path(routerID))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, errors.Join(ErrLoadFailed, err)
	}

	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Join(ErrLoadFailed, err)
	}
	return s, nil
}

package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore keeps photos as flat files under a single directory. Handles
// are random UUIDs; the locator is the file path.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (store *DiskStore) Save(data []byte) (string, string, error) {
	fileID := uuid.NewString()
	filePath := store.pathFor(fileID)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write photo %s: %w", fileID, err)
	}
	return fileID, filePath, nil
}

func (store *DiskStore) Fetch(fileID string) ([]byte, bool, error) {
	data, err := os.ReadFile(store.pathFor(fileID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read photo %s: %w", fileID, err)
	}
	return data, true, nil
}

func (store *DiskStore) Delete(fileID string) error {
	err := os.Remove(store.pathFor(fileID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo %s: %w", fileID, err)
	}
	return nil
}

func (store *DiskStore) pathFor(fileID string) string {
	return filepath.Join(store.dir, fileID+".jpg")
}

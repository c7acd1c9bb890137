package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/henrika2/spreadsheet/contracts"
)

// FileSheetStorageLockTimeout is how long Read and Write wait for the file lock
const FileSheetStorageLockTimeout = 5 * time.Second

// FileSheetStorage keeps every sheet in its own file, the key is the file path.
// Access is guarded by an exclusive lock on `<path>.lock`.
type FileSheetStorage struct {
	lockTimeout time.Duration
}

func NewFileSheetStorage() *FileSheetStorage {
	return &FileSheetStorage{lockTimeout: FileSheetStorageLockTimeout}
}

func (s *FileSheetStorage) Read(path string) ([]byte, error) {
	lock, err := s.lock(path)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
	}
	return data, nil
}

// Write replaces the file atomically through a temp file in the same directory
func (s *FileSheetStorage) Write(path string, data []byte) (err error) {
	lock, err := s.lock(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
	}
	if err = os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", contracts.ReadWriteError, err)
	}
	return nil
}

func (s *FileSheetStorage) lock(path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring lock for %s: %w", contracts.ReadWriteError, path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: timeout waiting for lock on %s", contracts.ReadWriteError, path)
	}
	return lock, nil
}

package io

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock is an exclusive lock on a directory, held through a `.lock` file
// inside it. It keeps two validator processes from sharing one data directory.
type FileLock struct {
	lockFile *flock.Flock
	path     string
}

// NewFileLock creates a lock for the given directory. The directory is created on Lock.
func NewFileLock(dir string) *FileLock {
	lockPath := filepath.Join(dir, ".lock")
	return &FileLock{
		lockFile: flock.New(lockPath),
		path:     lockPath,
	}
}

// Lock acquires the lock without blocking. It fails if another process holds it.
func (fl *FileLock) Lock() error {
	dir := filepath.Dir(fl.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for lock file %s: %w", fl.path, err)
	}

	locked, err := fl.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire file lock at %s: %w", fl.path, err)
	}
	if !locked {
		return fmt.Errorf("cannot acquire exclusive lock on %s: %w", fl.path, ErrLocked)
	}
	return nil
}

// LockWithRetry calls Lock up to attempts+1 times, waiting interval between
// tries while the lock is held elsewhere. Other failures are returned at once.
func (fl *FileLock) LockWithRetry(ctx context.Context, attempts uint64, interval time.Duration) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewConstant(interval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fl.Lock()
		if errors.Is(err, ErrLocked) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (fl *FileLock) Unlock() error {
	if err := fl.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to release file lock at %s: %w", fl.path, err)
	}
	return nil
}

// Path returns the path to the lock file.
func (fl *FileLock) Path() string {
	return fl.path
}

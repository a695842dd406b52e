package io

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminateOnFullDisk(t *testing.T) {
	t.Run("return nil on no error", func(t *testing.T) {
		require.NoError(t, TerminateOnFullDisk(nil))
	})
	t.Run("benign non disk related error should return the error", func(t *testing.T) {
		benignError := errors.New("benign error")
		require.ErrorIs(t, TerminateOnFullDisk(benignError), benignError)
	})
	t.Run("panic on full disk", func(t *testing.T) {
		diskFull := fmt.Errorf("wrapped storage error: %w", syscall.ENOSPC)
		require.Panics(t, func() {
			_ = TerminateOnFullDisk(diskFull)
		})
	})
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file")

	assert.False(t, FileExists(path))
	require.NoError(t, WriteFile(path, []byte("first")))
	assert.True(t, FileExists(path))

	require.NoError(t, WriteFile(path, []byte("second")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")

	assert.False(t, FileExists(dir), "directories are not files")
}

func TestFileLock(t *testing.T) {
	dir := t.TempDir()

	first := NewFileLock(dir)
	require.NoError(t, first.Lock())
	assert.True(t, FileExists(first.Path()))

	second := NewFileLock(dir)
	assert.Error(t, second.Lock())

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())
}

func TestFileLock_LockWithRetry(t *testing.T) {
	dir := t.TempDir()

	first := NewFileLock(dir)
	require.NoError(t, first.Lock())

	second := NewFileLock(dir)
	err := second.LockWithRetry(context.Background(), 2, time.Millisecond)
	require.ErrorIs(t, err, ErrLocked)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = first.Unlock()
	}()
	require.NoError(t, second.LockWithRetry(context.Background(), 100, 10*time.Millisecond))
	require.NoError(t, second.Unlock())
}

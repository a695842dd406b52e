package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileExists reports whether a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFile atomically replaces the file at path with data. The content is
// written to a temporary file in the same directory first and then renamed.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return TerminateOnFullDisk(fmt.Errorf("could not write %s: %w", tmp.Name(), err))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not move file into place at %s: %w", path, err)
	}
	return nil
}

// TerminateOnFullDisk panics if the error wraps an out-of-disk-space error,
// otherwise it returns the error unchanged.
func TerminateOnFullDisk(err error) error {
	if err != nil && errors.Is(err, syscall.ENOSPC) {
		panic(fmt.Sprintf("disk full, terminating node: %s", err.Error()))
	}
	return err
}

package journal

import (
	"errors"
)

var (
	// ErrNotRunning is returned by accessors that need the running chain controller.
	ErrNotRunning = errors.New("journal is not running")

	// ErrClosed is returned when starting a journal that was closed.
	ErrClosed = errors.New("journal is closed")

	ErrNilBlock = errors.New("nil block")
	ErrNilBatch = errors.New("nil batch")
)

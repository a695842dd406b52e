package unittest

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestLogger_ConcurrentUse creates loggers while others are logging; run with
// -race to check that creating a logger does not touch shared state.
func TestLogger_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			log := Logger()
			log.Info().Msg("logging")
		}()
		go func() {
			defer wg.Done()
			_ = Logger()
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	log := LoggerWithWriterAndLevel(&buf, zerolog.InfoLevel)
	log.Info().Msg("hello")
	log.Debug().Msg("filtered")
	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), `"time":`)
}

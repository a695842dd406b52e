package unittest

import (
	"flag"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

var timestampOnce sync.Once

// Logger returns a zerolog
// use -vv flag to print debugging logs for tests
func Logger() zerolog.Logger {
	writer := io.Discard
	if *verbose {
		writer = os.Stderr
	}

	return LoggerWithWriterAndLevel(writer, zerolog.TraceLevel)
}

func LoggerWithWriterAndLevel(writer io.Writer, level zerolog.Level) zerolog.Logger {
	timestampOnce.Do(func() {
		zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	})
	log := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return log
}

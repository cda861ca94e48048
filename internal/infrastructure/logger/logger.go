package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the process logger: JSON lines in production, human-readable
// console output in development.
func Init(env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return Set(zerolog.New(out).With().Timestamp().Logger())
}

// Set replaces the process logger. Tests use it to silence or capture output.
func Set(l zerolog.Logger) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	base = l
	return base
}

func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns a child logger tagged with the emitting layer, e.g. "payment.usecase".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. EVOTE_LOG_LEVEL selects the level and
// EVOTE_LOG_FORMAT_JSON switches from console to JSON output.
func New() zerolog.Logger {
	return NewWithWriter(os.Stdout)
}

func NewWithWriter(w io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(Level(os.Getenv("EVOTE_LOG_LEVEL")))

	if strings.TrimSpace(os.Getenv("EVOTE_LOG_FORMAT_JSON")) != "" {
		return zerolog.New(w).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %s |", i))
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// Level maps a level name to zerolog, defaulting to info.
func Level(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// pkg/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Default to console output with color
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	Log = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
	log.Logger = Log
}

// Configure applies the server mode to the global logger. Release mode swaps
// the console writer for plain JSON output so logs stay machine-readable.
func Configure(mode string) {
	if mode == "release" {
		Log = zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		log.Logger = Log
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}

	level, err := zerolog.ParseLevel(mode)
	if err != nil {
		Log.Warn().Str("mode", mode).Msg("unknown mode, defaulting to debug level")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

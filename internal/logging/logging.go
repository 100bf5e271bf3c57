// Package logging configures the global zerolog logger for plextube.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Console output is always enabled;
// logFilePath may be empty to skip file logging. debugLevel maps onto
// zerolog levels: 0 = info, 1 = debug, 2+ = trace.
func Setup(logFilePath string, debugLevel int) error {
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}}

	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()

	switch {
	case debugLevel <= 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case debugLevel == 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	return nil
}

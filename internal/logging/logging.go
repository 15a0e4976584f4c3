// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/neuron/internal/config"
	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing to w. Console output is colored only
// when color is true.
func New(cfg config.LogConfig, w io.Writer, color bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	out := w
	switch cfg.Format {
	case "json":
	case "console", "":
		out = zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

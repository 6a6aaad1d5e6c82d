package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
)

// logger routes pebble's internal logging onto a zerolog logger. pebble's info
// output is chatty, so it is demoted to debug.
type logger struct {
	log zerolog.Logger
}

var _ pebble.Logger = logger{}

func newLogger(l zerolog.Logger) logger {
	return logger{log: l.With().Str("engine", "pebble").Logger()}
}

func (l logger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

// Fatalf must not return: zerolog only exits on fatal when the level is
// enabled, so the panic is unconditional.
func (l logger) Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log.Error().Bool("fatal", true).Msg(msg)
	panic(msg)
}

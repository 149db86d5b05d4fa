// Package jobs builds the cron scheduler the server's background jobs share.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewCron returns a scheduler evaluating specs in loc. A job still running
// when its next tick arrives is skipped, and panics are logged and recovered.
func NewCron(loc *time.Location) *cron.Cron {
	if loc == nil {
		loc = time.UTC
	}
	l := Logger{log.Logger}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// Logger adapts zerolog to cron.Logger.
type Logger struct {
	zerolog.Logger
}

func (l Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug().Fields(keysAndValues).Msg("[cron] " + msg)
}

func (l Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error().Err(err).Fields(keysAndValues).Msg("[cron] " + msg)
}

package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule runs the batch at 05:00 every day.
const DefaultSchedule = "0 5 * * *"

// runTimeout bounds a single scheduled run.
const runTimeout = 30 * time.Minute

// Schedule adds the job to c under spec. An empty spec uses DefaultSchedule.
func Schedule(c *cron.Cron, spec string, j *Job) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := j.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("[reminder] run failed")
			return
		}
		for _, e := range res.Errors {
			log.Warn().Str("error", e).Msg("[reminder] delivery error")
		}
	})
	if err != nil {
		return 0, err
	}
	log.Info().Str("schedule", spec).Msg("[reminder] scheduled")
	return id, nil
}

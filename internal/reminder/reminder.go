// Package reminder emails each subscriber the day's prayer times once a day.
//
// A run is a batch over every recipient. Per-recipient failures are collected
// and never stop the batch, and nothing is retried within a run. A delivery is
// marked after the mail is accepted, so a crash in between can resend on the
// next run, but a marked delivery is never resent the same day.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// DefaultDelay is the pause between sends.
const DefaultDelay = 100 * time.Millisecond

// Recipients lists subscribers and tracks what has been delivered.
type Recipients interface {
	ReminderRecipients(ctx context.Context) ([]store.Recipient, error)
	WasDelivered(ctx context.Context, recipient, day string) (bool, error)
	MarkDelivered(ctx context.Context, recipient, day string, at time.Time) error
}

// Schedules resolves a postcode's prayer times.
type Schedules interface {
	Day(ctx context.Context, q schedule.Query, date time.Time) (*schedule.Day, error)
}

// Result summarises one run.
type Result struct {
	Total   int      `json:"total"`
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *Result) fail(email string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", email, err))
}

// Job sends the daily reminder.
type Job struct {
	recipients Recipients
	schedules  Schedules
	mailer     Mailer
	method     string
	delay      time.Duration
	loc        *time.Location
	now        func() time.Time
}

// Option configures a Job.
type Option func(*Job)

// WithDelay sets the pause between sends.
func WithDelay(d time.Duration) Option {
	return func(j *Job) { j.delay = d }
}

// WithLocation sets the zone the delivery day is computed in.
func WithLocation(loc *time.Location) Option {
	return func(j *Job) { j.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

// WithMethodName sets the calculation method named in the email footer.
func WithMethodName(name string) Option {
	return func(j *Job) { j.method = name }
}

// NewJob builds a Job.
func NewJob(r Recipients, s Schedules, m Mailer, opts ...Option) *Job {
	j := &Job{
		recipients: r,
		schedules:  s,
		mailer:     m,
		delay:      DefaultDelay,
		loc:        time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run sends today's reminder to every recipient not yet served. Only a failure
// to list recipients or a cancelled context ends the run early.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	recipients, err := j.recipients.ReminderRecipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}

	today := j.now().In(j.loc)
	day := today.Format("2006-01-02")
	res := &Result{Total: len(recipients)}
	log.Info().Int("recipients", len(recipients)).Str("day", day).Msg("[reminder] starting run")

	sent := 0
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if r.Postcode == "" {
			res.Skipped++
			continue
		}
		done, err := j.recipients.WasDelivered(ctx, r.Email, day)
		if err != nil {
			res.fail(r.Email, err)
			continue
		}
		if done {
			res.Skipped++
			continue
		}

		if sent > 0 && j.delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(j.delay):
			}
		}

		if err := j.send(ctx, r, today); err != nil {
			log.Warn().Err(err).Str("email", r.Email).Msg("[reminder] send failed")
			res.fail(r.Email, err)
			continue
		}
		sent++
		res.Sent++

		if err := j.recipients.MarkDelivered(ctx, r.Email, day, j.now()); err != nil {
			log.Error().Err(err).Str("email", r.Email).Msg("[reminder] could not mark delivery")
			res.Errors = append(res.Errors, fmt.Sprintf("%s: mark delivered: %v", r.Email, err))
		}
	}

	log.Info().Int("sent", res.Sent).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("[reminder] run finished")
	return res, nil
}

func (j *Job) send(ctx context.Context, r store.Recipient, today time.Time) error {
	d, err := j.schedules.Day(ctx, schedule.PostcodeQuery(r.Postcode), today)
	if err != nil {
		return fmt.Errorf("prayer times for %s: %w", r.Postcode, err)
	}

	msg, err := Compose(r, d, j.method)
	if err != nil {
		return err
	}
	msg.To = r.Email
	return j.mailer.Send(ctx, msg)
}

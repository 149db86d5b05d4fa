// Package app assembles the server process from its environment: database,
// schedule cache, HTTP API and the scheduled reminder and broadcast jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/auth"
	"github.com/smokyabdulrahman/salahclock/internal/broadcast"
	"github.com/smokyabdulrahman/salahclock/internal/cache"
	"github.com/smokyabdulrahman/salahclock/internal/config"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/jobs"
	"github.com/smokyabdulrahman/salahclock/internal/reminder"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/server"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// App holds the server's long-lived components.
type App struct {
	Env       *config.Env
	Location  *time.Location
	Store     *store.Store
	Schedules *schedule.Service
	Server    *server.Server

	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	storeOpts []store.Option
	geocoder  schedule.Geocoder
	fetcher   schedule.TimingsFetcher
}

// WithStoreOptions passes opts to store.Open.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithClients replaces the postcodes.io and Al Adhan clients.
func WithClients(g schedule.Geocoder, f schedule.TimingsFetcher) Option {
	return func(o *options) { o.geocoder, o.fetcher = g, f }
}

// New connects to the database, runs migrations and builds the API.
func New(ctx context.Context, env *config.Env, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.geocoder == nil {
		o.geocoder = geo.NewPostcodeClient()
	}
	if o.fetcher == nil {
		o.fetcher = api.NewClient()
	}

	loc, err := time.LoadLocation(env.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", env.Timezone, err)
	}

	st, err := store.Open(ctx, env.DatabaseDriver, env.DatabaseURL, o.storeOpts...)
	if err != nil {
		return nil, err
	}
	a := &App{Env: env, Location: loc, Store: st, closers: []func() error{st.Close}}

	applied, err := st.Migrate(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("applied migrations")
	}

	a.Schedules = schedule.NewService(o.geocoder, o.fetcher, a.cacheStore(ctx),
		schedule.WithParams(api.Params{Method: env.PrayerMethod, School: -1}))

	a.Server = server.New(server.Options{
		Store:     st,
		Schedules: a.Schedules,
		Issuer:    auth.NewIssuer(env.JWTSecret, 0),
		Location:  loc,
	})
	return a, nil
}

// cacheStore picks Redis when configured and reachable, then the file cache,
// then no cache at all.
func (a *App) cacheStore(ctx context.Context) cache.Store {
	if a.Env.RedisAddress != "" {
		r := cache.NewRedis(cache.RedisOptions{
			Address:  a.Env.RedisAddress,
			Username: a.Env.RedisUsername,
			Password: a.Env.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := r.Ping(pingCtx)
		if err == nil {
			log.Info().Str("address", a.Env.RedisAddress).Msg("using redis schedule cache")
			a.closers = append(a.closers, r.Close)
			return r
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to file cache")
		_ = r.Close()
	}

	f, err := cache.NewFile(a.Env.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("schedule cache disabled")
		return cache.Nop{}
	}
	return f
}

// Mailer returns the SMTP mailer, or nil when SMTP is not configured.
func (a *App) Mailer() reminder.Mailer {
	if !a.Env.MailEnabled() {
		return nil
	}
	return reminder.NewSMTPMailer(a.Env.SMTPHost, a.Env.SMTPPort, a.Env.SMTPUsername, a.Env.SMTPPassword, a.Env.SMTPFrom)
}

// ReminderJob builds the daily reminder job around m.
func (a *App) ReminderJob(m reminder.Mailer) *reminder.Job {
	return reminder.NewJob(a.Store, a.Schedules, m,
		reminder.WithLocation(a.Location),
		reminder.WithMethodName(api.MethodName(a.Env.PrayerMethod)))
}

// Scheduler registers the background jobs that are configured: the reminder
// when SMTP is set up, the broadcast when an MQTT broker is. The caller
// starts and stops the returned scheduler.
func (a *App) Scheduler() (*cron.Cron, error) {
	c := jobs.NewCron(a.Location)

	if m := a.Mailer(); m != nil {
		if _, err := reminder.Schedule(c, a.Env.ReminderCron, a.ReminderJob(m)); err != nil {
			return nil, fmt.Errorf("invalid REMINDER_CRON %q: %w", a.Env.ReminderCron, err)
		}
	} else {
		log.Info().Msg("SMTP_HOST not set, daily reminders disabled")
	}

	if a.Env.MQTTBroker != "" {
		pub, err := broadcast.Dial(a.Env.MQTTBroker, "salahclock-"+uuid.NewString()[:8])
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pub.Close(); return nil })

		b := broadcast.New(a.Store, a.Schedules, pub, broadcast.WithLocation(a.Location))
		if _, err := broadcast.Schedule(c, a.Env.BroadcastCron, b); err != nil {
			return nil, fmt.Errorf("invalid BROADCAST_CRON %q: %w", a.Env.BroadcastCron, err)
		}
	}
	return c, nil
}

// Serve runs the API and the background jobs until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	c, err := a.Scheduler()
	if err != nil {
		return err
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	return a.Server.Run(ctx, a.Env.ServerAddress)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

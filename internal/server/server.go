// Package server exposes prayer schedules and the account, reminder, mosque
// and widget records over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/auth"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// Schedules resolves prayer schedules.
type Schedules interface {
	Day(ctx context.Context, q schedule.Query, date time.Time) (*schedule.Day, error)
	Range(ctx context.Context, q schedule.Query, start time.Time, days int) (*schedule.RangeResult, error)
	Params() api.Params
}

// Options holds the server's collaborators.
type Options struct {
	Store     *store.Store
	Schedules Schedules
	Issuer    *auth.Issuer
	Policy    prayer.Policy
	// Location is the time zone "today" is computed in. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

// Server is the HTTP API.
type Server struct {
	store     *store.Store
	schedules Schedules
	issuer    *auth.Issuer
	policy    prayer.Policy
	loc       *time.Location
	now       func() time.Time
	router    *gin.Engine
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		schedules: opts.Schedules,
		issuer:    opts.Issuer,
		policy:    opts.Policy,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.policy == (prayer.Policy{}) {
		s.policy = prayer.DefaultPolicy()
	}

	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	s.routes(r)
	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// today is the current time in the server's zone.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

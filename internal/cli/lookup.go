package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/cache"
	"github.com/smokyabdulrahman/salahclock/internal/config"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

// Seams for tests.
var (
	newAPIClient      = api.NewClient
	newPostcodeClient = geo.NewPostcodeClient
	detectLocation    = geo.DetectLocation
	clock             = time.Now
)

// lookup bundles what the schedule commands share: the merged config, the
// schedule service and the resolved location.
type lookup struct {
	cfg     *config.Config
	service *schedule.Service
	query   schedule.Query
}

func newLookup(cmd *cobra.Command) (*lookup, error) {
	cfg := effectiveConfig(cmd)

	// Cache init failure is non-fatal; we just skip caching.
	var store cache.Store = cache.Nop{}
	files, err := cache.NewFile(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		files = nil
	} else {
		store = files
	}

	q, err := resolveQuery(cmd.Context(), cfg, files)
	if err != nil {
		return nil, err
	}

	svc := schedule.NewService(newPostcodeClient(), newAPIClient(), store,
		schedule.WithParams(api.Params{
			Method: cfg.MethodOrDefault(api.MethodMWL),
			School: cfg.SchoolOrDefault(-1),
		}),
		schedule.WithClock(clock))

	return &lookup{cfg: cfg, service: svc, query: q}, nil
}

// resolveQuery picks where to look up.
// Priority: postcode > coordinates > cached geolocation > IP auto-detect.
func resolveQuery(ctx context.Context, cfg *config.Config, files *cache.File) (schedule.Query, error) {
	switch {
	case cfg.Postcode != "":
		return schedule.PostcodeQuery(cfg.Postcode).Validate()
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		return schedule.CoordinatesQuery(cfg.Latitude, cfg.Longitude).Validate()
	}

	now := clock()
	if files != nil {
		if cached := files.LoadGeo(now); cached != nil {
			return schedule.Query{Coordinates: cached.Coordinates}, nil
		}
	}

	detected, err := detectLocation(ctx)
	if err != nil {
		return schedule.Query{}, fmt.Errorf("no location set and auto-detection failed (use --postcode): %w", err)
	}
	log.Debug().Str("city", detected.City).Str("coordinates", detected.Coordinates.String()).Msg("detected location")

	if files != nil {
		if err := files.SaveGeo(detected, now); err != nil {
			log.Warn().Err(err).Msg("failed to cache detected location")
		}
	}
	return schedule.Query{Coordinates: detected.Coordinates}, nil
}

// day resolves the schedule for date. It satisfies tui.Loader.
func (l *lookup) day(ctx context.Context, date time.Time) (*schedule.Day, error) {
	return l.service.Day(ctx, l.query, date)
}

// today resolves the schedule for the current date at the location. The
// first lookup uses the machine's date; when the location's time zone is on
// a different date the schedule for that date is fetched instead.
func (l *lookup) today(ctx context.Context) (*schedule.Day, error) {
	day, err := l.day(ctx, clock())
	if err != nil {
		return nil, err
	}
	now := localNow(day)
	if sameDate(day.Schedule.Date(), now) {
		return day, nil
	}
	log.Debug().Str("timezone", day.Meta.Timezone).Time("now", now).Msg("location is on another date, refetching")
	return l.day(ctx, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// methodName is the display name of the calculation method in use.
func (l *lookup) methodName() string {
	return api.MethodName(l.service.Params().Method)
}

// localNow re-anchors the current time to the schedule's time zone, so the
// comparisons work when the machine's zone differs from the location's.
func localNow(d *schedule.Day) time.Time {
	now := clock()
	if d == nil || d.Meta.Timezone == "" {
		return now
	}
	loc, err := time.LoadLocation(d.Meta.Timezone)
	if err != nil {
		log.Debug().Err(err).Str("timezone", d.Meta.Timezone).Msg("unknown timezone, using local time")
		return now
	}
	return now.In(loc)
}

// Package schedule resolves a location and a date into a prayer Schedule:
// postcode lookup, prayer times fetch, cache, and parsing.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/apperr"
	"github.com/smokyabdulrahman/salahclock/internal/cache"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

// MaxRangeDays bounds Range lookups.
const MaxRangeDays = 30

// Geocoder resolves a UK postcode to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) (*geo.Place, error)
}

// TimingsFetcher fetches raw prayer times.
type TimingsFetcher interface {
	FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, p api.Params) (*api.Response, error)
	FetchCalendarByCoordinates(ctx context.Context, year int, month time.Month, lat, lon float64, p api.Params) (*api.CalendarResponse, error)
}

// Query is where to look up: a postcode, or coordinates when Postcode is empty.
type Query struct {
	Postcode    string
	Coordinates geo.Coordinates
}

// PostcodeQuery builds a postcode query.
func PostcodeQuery(postcode string) Query {
	return Query{Postcode: postcode}
}

// CoordinatesQuery builds a GPS query.
func CoordinatesQuery(lat, lon float64) Query {
	return Query{Coordinates: geo.Coordinates{Latitude: lat, Longitude: lon}}
}

// Validate normalises the postcode or checks the coordinates.
func (q Query) Validate() (Query, error) {
	if q.Postcode != "" {
		pc, err := geo.NormalizePostcode(q.Postcode)
		if err != nil {
			return q, err
		}
		q.Postcode = pc
		return q, nil
	}
	return q, q.Coordinates.Validate()
}

// Label is the postcode, or the coordinates for GPS queries.
func (q Query) Label() string {
	if q.Postcode != "" {
		return q.Postcode
	}
	return q.Coordinates.String()
}

func (q Query) key(date time.Time, span cache.Span, method int) cache.Key {
	if q.Postcode != "" {
		return cache.PostcodeKey(q.Postcode, date, span, method)
	}
	return cache.CoordinatesKey(q.Coordinates, date, span, method)
}

// Day is one resolved day.
type Day struct {
	Query       Query
	Coordinates geo.Coordinates
	Schedule    prayer.Schedule
	DateInfo    api.DateInfo
	Meta        api.Meta
}

// DayError records a day that could not be resolved in a Range.
type DayError struct {
	Date time.Time
	Err  error
}

// RangeResult is the outcome of a multi-day lookup. Failed days are skipped
// from Days and listed in Failed.
type RangeResult struct {
	Query  Query
	Days   []Day
	Failed []DayError
}

// Service resolves schedules. It is safe for concurrent use when its
// collaborators are.
type Service struct {
	geocoder Geocoder
	fetcher  TimingsFetcher
	cache    cache.Store
	params   api.Params
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithParams sets the calculation method and school.
func WithParams(p api.Params) Option {
	return func(s *Service) { s.params = p }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service. A nil store disables caching.
func NewService(g Geocoder, f TimingsFetcher, store cache.Store, opts ...Option) *Service {
	if store == nil {
		store = cache.Nop{}
	}
	s := &Service{
		geocoder: g,
		fetcher:  f,
		cache:    store,
		params:   api.DefaultParams(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the calculation parameters in use.
func (s *Service) Params() api.Params {
	return s.params
}

// ForPostcode resolves the schedule for a UK postcode on date.
func (s *Service) ForPostcode(ctx context.Context, postcode string, date time.Time) (*Day, error) {
	return s.Day(ctx, PostcodeQuery(postcode), date)
}

// ForCoordinates resolves the schedule for a GPS position on date.
func (s *Service) ForCoordinates(ctx context.Context, lat, lon float64, date time.Time) (*Day, error) {
	return s.Day(ctx, CoordinatesQuery(lat, lon), date)
}

// Day resolves one day: cache, then geocode and fetch.
func (s *Service) Day(ctx context.Context, q Query, date time.Time) (*Day, error) {
	q, err := q.Validate()
	if err != nil {
		return nil, err
	}
	date = midnight(date)
	key := q.key(date, cache.SpanDay, s.params.Method)

	if entry, ok := s.cache.Load(ctx, key, s.now()); ok {
		log.Debug().Str("key", key.String()).Msg("[schedule] cache hit")
		return dayFromCache(q, entry, entry.Days[0], date)
	}

	coords, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	resp, err := s.fetcher.FetchByCoordinates(ctx, date, coords.Latitude, coords.Longitude, s.params)
	if err != nil {
		return nil, err
	}

	sched, err := prayer.ScheduleFromTimings(resp.Data.Timings, date)
	if err != nil {
		return nil, fmt.Errorf("schedule for %s on %s: %w", q.Label(), date.Format("2006-01-02"), err)
	}

	cd := cache.Day{Date: date.Format("2006-01-02"), Timings: resp.Data.Timings, DateInfo: resp.Data.Date, Meta: resp.Data.Meta}
	s.store(ctx, key, coords, []cache.Day{cd})

	return &Day{Query: q, Coordinates: coords, Schedule: sched, DateInfo: resp.Data.Date, Meta: resp.Data.Meta}, nil
}

// Range resolves up to MaxRangeDays consecutive days from start. Days are
// fetched a calendar month at a time. A day that fails is skipped and reported
// rather than failing the whole range; only an invalid query or an
// unresolvable location fails the call. Seven-day ranges are cached under the
// week span.
func (s *Service) Range(ctx context.Context, q Query, start time.Time, days int) (*RangeResult, error) {
	q, err := q.Validate()
	if err != nil {
		return nil, err
	}
	if days < 1 || days > MaxRangeDays {
		return nil, apperr.New(apperr.InvalidInput, "schedule.Range",
			fmt.Sprintf("days must be between 1 and %d", MaxRangeDays))
	}
	start = midnight(start)

	weekly := days <= 7
	key := q.key(start, cache.SpanWeek, s.params.Method)
	if weekly {
		if entry, ok := s.cache.Load(ctx, key, s.now()); ok && len(entry.Days) >= days {
			return rangeFromCache(q, entry, start, days), nil
		}
	}

	coords, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]api.Data)
	monthErr := make(map[string]error)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		mk := d.Format("2006-01")
		if _, seen := monthErr[mk]; seen {
			continue
		}
		cal, err := s.fetcher.FetchCalendarByCoordinates(ctx, d.Year(), d.Month(), coords.Latitude, coords.Longitude, s.params)
		monthErr[mk] = err
		if err != nil {
			log.Warn().Err(err).Str("month", mk).Str("location", q.Label()).Msg("[schedule] calendar fetch failed")
			continue
		}
		for _, data := range cal.Data {
			if t, err := data.Date.Gregorian.Time(start.Location()); err == nil {
				byDate[t.Format("2006-01-02")] = data
			}
		}
	}

	result := &RangeResult{Query: q}
	var cached []cache.Day
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		ds := d.Format("2006-01-02")

		if err := monthErr[d.Format("2006-01")]; err != nil {
			result.Failed = append(result.Failed, DayError{Date: d, Err: err})
			continue
		}
		data, ok := byDate[ds]
		if !ok {
			result.Failed = append(result.Failed, DayError{Date: d,
				Err: apperr.New(apperr.NotFound, "schedule.Range", fmt.Sprintf("no prayer times for %s", ds))})
			continue
		}
		sched, err := prayer.ScheduleFromTimings(data.Timings, d)
		if err != nil {
			result.Failed = append(result.Failed, DayError{Date: d, Err: err})
			continue
		}
		result.Days = append(result.Days, Day{Query: q, Coordinates: coords, Schedule: sched, DateInfo: data.Date, Meta: data.Meta})
		cached = append(cached, cache.Day{Date: ds, Timings: data.Timings, DateInfo: data.Date, Meta: data.Meta})
	}

	if weekly && len(result.Failed) == 0 {
		s.store(ctx, key, coords, cached)
	}
	return result, nil
}

// resolve returns the coordinates for q, geocoding postcodes.
func (s *Service) resolve(ctx context.Context, q Query) (geo.Coordinates, error) {
	if q.Postcode == "" {
		return q.Coordinates, nil
	}
	place, err := s.geocoder.Lookup(ctx, q.Postcode)
	if err != nil {
		return geo.Coordinates{}, err
	}
	return place.Coordinates, nil
}

func (s *Service) store(ctx context.Context, key cache.Key, c geo.Coordinates, days []cache.Day) {
	entry := cache.NewEntry(key, c.Latitude, c.Longitude, days, s.now())
	if err := s.cache.Save(ctx, key, entry); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("[schedule] cache write failed")
	}
}

func dayFromCache(q Query, entry *cache.Entry, cd cache.Day, date time.Time) (*Day, error) {
	sched, err := prayer.ScheduleFromTimings(cd.Timings, date)
	if err != nil {
		return nil, err
	}
	return &Day{
		Query:       q,
		Coordinates: geo.Coordinates{Latitude: entry.Latitude, Longitude: entry.Longitude},
		Schedule:    sched,
		DateInfo:    cd.DateInfo,
		Meta:        cd.Meta,
	}, nil
}

func rangeFromCache(q Query, entry *cache.Entry, start time.Time, days int) *RangeResult {
	result := &RangeResult{Query: q}
	for i, cd := range entry.Days[:days] {
		date := start.AddDate(0, 0, i)
		day, err := dayFromCache(q, entry, cd, date)
		if err != nil {
			result.Failed = append(result.Failed, DayError{Date: date, Err: err})
			continue
		}
		result.Days = append(result.Days, *day)
	}
	return result
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

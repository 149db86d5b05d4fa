// Package broadcast publishes each approved mosque's prayer board to MQTT so
// in-mosque screens can render it without polling the API.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// DefaultSchedule publishes every minute.
const DefaultSchedule = "* * * * *"

// Mosques lists mosques and their iqama times.
type Mosques interface {
	ApprovedMosques(ctx context.Context) ([]store.Mosque, error)
	LatestIqama(ctx context.Context, mosqueID string) (*store.IqamaTimes, error)
}

// Schedules resolves a postcode's prayer times.
type Schedules interface {
	Day(ctx context.Context, q schedule.Query, date time.Time) (*schedule.Day, error)
}

// Topic is where a mosque's board is published.
func Topic(mosqueID string) string {
	return fmt.Sprintf("salahclock/mosques/%s/prayers", mosqueID)
}

// Entry is one row of the board.
type Entry struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Status string `json:"status"`
	Iqama  string `json:"iqama,omitempty"`
}

// Next is the upcoming prayer.
type Next struct {
	Name             string `json:"name"`
	Time             string `json:"time"`
	Remaining        string `json:"remaining"`
	RemainingMinutes int    `json:"remaining_minutes"`
	Tomorrow         bool   `json:"tomorrow"`
}

// Board is the retained message payload.
type Board struct {
	MosqueID    string    `json:"mosque_id"`
	Name        string    `json:"name"`
	Postcode    string    `json:"postcode"`
	Date        string    `json:"date"`
	Hijri       string    `json:"hijri,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Prayers     []Entry   `json:"prayers"`
	Next        *Next     `json:"next,omitempty"`
	IqamaNotes  string    `json:"iqama_notes,omitempty"`
}

// Broadcaster builds and publishes boards.
type Broadcaster struct {
	mosques   Mosques
	schedules Schedules
	pub       Publisher
	policy    prayer.Policy
	loc       *time.Location
	now       func() time.Time
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithPolicy sets the classification window.
func WithPolicy(p prayer.Policy) Option {
	return func(b *Broadcaster) { b.policy = p }
}

// WithLocation sets the zone boards are computed in.
func WithLocation(loc *time.Location) Option {
	return func(b *Broadcaster) { b.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Broadcaster) { b.now = now }
}

// New builds a Broadcaster.
func New(m Mosques, s Schedules, pub Publisher, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		mosques:   m,
		schedules: s,
		pub:       pub,
		policy:    prayer.DefaultPolicy(),
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Board builds the payload for one mosque at now.
func (b *Broadcaster) Board(ctx context.Context, m store.Mosque, now time.Time) (*Board, error) {
	day, err := b.schedules.Day(ctx, schedule.PostcodeQuery(m.Postcode), now)
	if err != nil {
		return nil, fmt.Errorf("prayer times for %s: %w", m.Postcode, err)
	}
	iqama, err := b.mosques.LatestIqama(ctx, m.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("iqama for %s: %w", m.ID, err)
	}

	snap := day.At(now, b.policy)
	board := &Board{
		MosqueID:    m.ID,
		Name:        m.Name,
		Postcode:    m.Postcode,
		Date:        day.Schedule.Date().Format("2006-01-02"),
		Hijri:       day.DateInfo.Hijri.Format(),
		GeneratedAt: now,
	}
	for _, e := range snap.Classified.Entries() {
		board.Prayers = append(board.Prayers, Entry{
			Name:   string(e.Name),
			Time:   e.Clock.String(),
			Status: string(e.Status),
			Iqama:  iqamaFor(iqama, e.Name),
		})
	}
	if iqama != nil && iqama.Notes != nil {
		board.IqamaNotes = *iqama.Notes
	}
	if snap.HasNext {
		board.Next = &Next{
			Name:             string(snap.Next.Name),
			Time:             snap.Next.Clock.String(),
			Remaining:        snap.Next.RemainingText(),
			RemainingMinutes: int(snap.Next.Remaining.Minutes()),
			Tomorrow:         snap.Next.Tomorrow,
		}
	}
	return board, nil
}

func iqamaFor(it *store.IqamaTimes, name prayer.Name) string {
	if it == nil {
		return ""
	}
	var v *string
	switch name {
	case prayer.Fajr:
		v = it.Fajr
	case prayer.Dhuhr:
		v = it.Dhuhr
	case prayer.Asr:
		v = it.Asr
	case prayer.Maghrib:
		v = it.Maghrib
	case prayer.Isha:
		v = it.Isha
	}
	if v == nil {
		return ""
	}
	return *v
}

// Run publishes a board for every approved mosque. A mosque that fails is
// logged and skipped; the returned error joins every failure.
func (b *Broadcaster) Run(ctx context.Context) (int, error) {
	mosques, err := b.mosques.ApprovedMosques(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mosques: %w", err)
	}

	now := b.now().In(b.loc)
	published := 0
	var errs []error
	for _, m := range mosques {
		if err := b.publish(ctx, m, now); err != nil {
			log.Warn().Err(err).Str("mosque", m.ID).Msg("[broadcast] publish failed")
			errs = append(errs, fmt.Errorf("mosque %s: %w", m.ID, err))
			continue
		}
		published++
	}
	return published, errors.Join(errs...)
}

func (b *Broadcaster) publish(ctx context.Context, m store.Mosque, now time.Time) error {
	board, err := b.Board(ctx, m, now)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	return b.pub.Publish(Topic(m.ID), payload)
}

// Schedule adds the broadcaster to c under spec. An empty spec uses DefaultSchedule.
func Schedule(c *cron.Cron, spec string, b *Broadcaster) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()

		n, err := b.Run(ctx)
		if err != nil {
			log.Error().Err(err).Int("published", n).Msg("[broadcast] run finished with errors")
			return
		}
		log.Debug().Int("published", n).Msg("[broadcast] run finished")
	})
	if err != nil {
		return 0, err
	}
	log.Info().Str("schedule", spec).Msg("[broadcast] scheduled")
	return id, nil
}

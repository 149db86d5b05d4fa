// Package cache keeps fetched prayer schedules for reuse within a day.
//
// Entries are keyed by location, start date, span and method. A day entry is
// fresh for 12 hours, a week entry for 24. Cache failures never fail a lookup:
// reads miss and writes return an error for the caller to log.
package cache

import (
	"context"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/api"
)

// Store is a schedule cache backend.
type Store interface {
	// Load returns the entry for key if it is present and fresh at now.
	Load(ctx context.Context, key Key, now time.Time) (*Entry, bool)
	// Save stores entry under key.
	Save(ctx context.Context, key Key, entry *Entry) error
}

// Entry is a cached lookup covering one or more consecutive days.
type Entry struct {
	Key       string    `json:"key"`
	Date      string    `json:"date"` // YYYY-MM-DD of the first day
	CachedAt  time.Time `json:"cached_at"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Days      []Day     `json:"days"`
}

// Day is one day of raw API timings.
type Day struct {
	Date     string       `json:"date"` // YYYY-MM-DD
	Timings  api.Timings  `json:"timings"`
	DateInfo api.DateInfo `json:"date_info"`
	Meta     api.Meta     `json:"meta"`
}

// NewEntry stamps days with key and the time they were fetched.
func NewEntry(key Key, lat, lon float64, days []Day, now time.Time) *Entry {
	return &Entry{
		Key:       key.String(),
		Date:      key.Day(),
		CachedAt:  now,
		Latitude:  lat,
		Longitude: lon,
		Days:      days,
	}
}

// Fresh reports whether e was stored under key and is younger than the span's TTL.
func (e *Entry) Fresh(key Key, now time.Time) bool {
	if e == nil || e.Key != key.String() || e.Date != key.Day() || len(e.Days) == 0 {
		return false
	}
	return now.Sub(e.CachedAt) < key.Span.TTL()
}

// Nop is a Store that never hits. It is used when caching is disabled.
type Nop struct{}

func (Nop) Load(context.Context, Key, time.Time) (*Entry, bool) { return nil, false }
func (Nop) Save(context.Context, Key, *Entry) error             { return nil }

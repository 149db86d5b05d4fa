package prayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// ErrInvalidFormat is returned for clock strings that are not HH:MM.
var ErrInvalidFormat = errors.New("invalid clock time format")

// Name identifies one of the six daily entries.
type Name string

const (
	Fajr    Name = "Fajr"
	Sunrise Name = "Sunrise"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Names lists the schedule entries in daily order.
var Names = []Name{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps prayer names to single-character abbreviations.
var ShortNames = map[Name]string{
	Fajr:    "F",
	Sunrise: "S",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// IsPrayer reports whether n can be the next prayer. Sunrise is informational.
func (n Name) IsPrayer() bool {
	return n != Sunrise
}

// ParseName matches a prayer name case-insensitively.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, nil
		}
	}
	return "", apperr.New(apperr.InvalidInput, "prayer.ParseName", fmt.Sprintf("unknown prayer %q", s))
}

// Status is the display classification of a schedule entry.
type Status string

const (
	StatusPast     Status = "past"
	StatusCurrent  Status = "current"
	StatusUpcoming Status = "upcoming"
)

// Clock is a local civil clock time with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "15:02" or "15:02 (BST)". The API sometimes appends a
// timezone abbreviation, which is dropped.
func ParseClock(raw string) (Clock, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Clock{}, invalidClock(raw)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, invalidClock(raw)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 || len(parts[1]) != 2 {
		return Clock{}, invalidClock(raw)
	}

	return Clock{Hour: hour, Minute: min}, nil
}

func invalidClock(raw string) error {
	return apperr.Wrap(apperr.InvalidInput, "prayer.ParseClock", fmt.Sprintf("invalid time %q", raw), ErrInvalidFormat)
}

// ClockOf returns the wall clock of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant of c on date's calendar day, in date's location.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// PrayerTime is one schedule entry.
type PrayerTime struct {
	Name   Name
	Clock  Clock
	Status Status
}

// Schedule holds the six entries of one calendar day in daily order.
// It is immutable: accessors return copies.
type Schedule struct {
	date    time.Time
	entries []PrayerTime
}

// NewSchedule validates entries and builds a Schedule. It requires exactly one
// entry per name and strictly increasing clock times.
func NewSchedule(date time.Time, entries []PrayerTime) (Schedule, error) {
	if len(entries) != len(Names) {
		return Schedule{}, apperr.New(apperr.InvalidInput, "prayer.NewSchedule",
			fmt.Sprintf("schedule needs %d entries, got %d", len(Names), len(entries)))
	}

	byName := make(map[Name]PrayerTime, len(entries))
	for _, e := range entries {
		if _, dup := byName[e.Name]; dup {
			return Schedule{}, apperr.New(apperr.InvalidInput, "prayer.NewSchedule",
				fmt.Sprintf("duplicate entry for %s", e.Name))
		}
		byName[e.Name] = e
	}

	ordered := make([]PrayerTime, 0, len(Names))
	for i, n := range Names {
		e, ok := byName[n]
		if !ok {
			return Schedule{}, apperr.New(apperr.InvalidInput, "prayer.NewSchedule",
				fmt.Sprintf("missing entry for %s", n))
		}
		if i > 0 && e.Clock.Minutes() <= ordered[i-1].Clock.Minutes() {
			return Schedule{}, apperr.New(apperr.InvalidInput, "prayer.NewSchedule",
				fmt.Sprintf("%s (%s) is not after %s (%s)", n, e.Clock, ordered[i-1].Name, ordered[i-1].Clock))
		}
		ordered = append(ordered, PrayerTime{Name: n, Clock: e.Clock, Status: e.Status})
	}

	return Schedule{date: date, entries: ordered}, nil
}

// ScheduleFromTimings parses the six daily entries out of an API response.
func ScheduleFromTimings(timings api.Timings, date time.Time) (Schedule, error) {
	raw := map[Name]string{
		Fajr:    timings.Fajr,
		Sunrise: timings.Sunrise,
		Dhuhr:   timings.Dhuhr,
		Asr:     timings.Asr,
		Maghrib: timings.Maghrib,
		Isha:    timings.Isha,
	}

	entries := make([]PrayerTime, 0, len(Names))
	for _, n := range Names {
		c, err := ParseClock(raw[n])
		if err != nil {
			return Schedule{}, fmt.Errorf("failed to parse time for %s: %w", n, err)
		}
		entries = append(entries, PrayerTime{Name: n, Clock: c})
	}

	return NewSchedule(date, entries)
}

// Date returns the calendar day the schedule belongs to.
func (s Schedule) Date() time.Time {
	return s.date
}

// Entries returns a copy of the entries in daily order.
func (s Schedule) Entries() []PrayerTime {
	out := make([]PrayerTime, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry for name.
func (s Schedule) Get(name Name) (PrayerTime, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return e, true
		}
	}
	return PrayerTime{}, false
}

// Len returns the number of entries; zero for an unset Schedule.
func (s Schedule) Len() int {
	return len(s.entries)
}

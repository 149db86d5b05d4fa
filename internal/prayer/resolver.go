package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// DefaultWindow is the span either side of now in which an entry is current.
const DefaultWindow = 30 * time.Minute

const minutesPerDay = 24 * 60

// Overlap decides what happens when more than one entry falls inside the
// current window, which occurs when two entries are closer than twice the window.
type Overlap string

const (
	// OverlapKeepAll marks every entry inside the window as current.
	OverlapKeepAll Overlap = "keep-all"
	// OverlapEarliest keeps only the earliest current entry; later ones stay upcoming.
	OverlapEarliest Overlap = "earliest"
	// OverlapLatest keeps only the latest current entry; earlier ones become past.
	OverlapLatest Overlap = "latest"
)

// ParseOverlap validates an overlap rule name. Empty means keep-all.
func ParseOverlap(s string) (Overlap, error) {
	switch Overlap(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverlapKeepAll:
		return OverlapKeepAll, nil
	case OverlapEarliest:
		return OverlapEarliest, nil
	case OverlapLatest:
		return OverlapLatest, nil
	default:
		return "", apperr.New(apperr.InvalidInput, "prayer.ParseOverlap",
			fmt.Sprintf("unknown overlap rule %q: must be keep-all, earliest or latest", s))
	}
}

// Policy configures classification.
type Policy struct {
	Window  time.Duration
	Overlap Overlap
}

// DefaultPolicy is a 30 minute window that keeps all overlapping entries current.
func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, Overlap: OverlapKeepAll}
}

// Classify returns a copy of s with a status on every entry. Comparison is at
// minute resolution on the wall clock of now; seconds are ignored.
//
// An entry is past when it is more than the window behind now, current when
// it is at most the window ahead of now, and upcoming otherwise.
func Classify(s Schedule, now time.Time, p Policy) Schedule {
	nowMin := ClockOf(now).Minutes()
	window := int(p.Window / time.Minute)
	if window < 0 {
		window = 0
	}

	entries := s.Entries()
	var current []int
	for i := range entries {
		m := entries[i].Clock.Minutes()
		switch {
		case m < nowMin-window:
			entries[i].Status = StatusPast
		case m <= nowMin+window:
			entries[i].Status = StatusCurrent
			current = append(current, i)
		default:
			entries[i].Status = StatusUpcoming
		}
	}

	if len(current) > 1 {
		switch p.Overlap {
		case OverlapEarliest:
			for _, i := range current[1:] {
				entries[i].Status = StatusUpcoming
			}
		case OverlapLatest:
			for _, i := range current[:len(current)-1] {
				entries[i].Status = StatusPast
			}
		}
	}

	return Schedule{date: s.date, entries: entries}
}

// NextPrayerResult is the next prayer and the time left until it.
type NextPrayerResult struct {
	Name  Name
	Clock Clock
	// At is the instant of the prayer, on tomorrow's date when Tomorrow is set.
	At        time.Time
	Remaining time.Duration
	Tomorrow  bool
}

// NextPrayer selects the first prayer, Sunrise excluded, whose clock time is
// strictly after now. Once Isha has passed it wraps to tomorrow's Fajr, read
// from today's schedule. Remaining is at minute resolution.
//
// ok is false only for an empty schedule.
func NextPrayer(s Schedule, now time.Time) (NextPrayerResult, bool) {
	nowMin := ClockOf(now).Minutes()

	for _, e := range s.entries {
		if !e.Name.IsPrayer() {
			continue
		}
		if m := e.Clock.Minutes(); m > nowMin {
			return NextPrayerResult{
				Name:      e.Name,
				Clock:     e.Clock,
				At:        e.Clock.On(now),
				Remaining: time.Duration(m-nowMin) * time.Minute,
			}, true
		}
	}

	fajr, ok := s.Get(Fajr)
	if !ok {
		return NextPrayerResult{}, false
	}
	toMidnight := minutesPerDay - nowMin
	return NextPrayerResult{
		Name:      fajr.Name,
		Clock:     fajr.Clock,
		At:        fajr.Clock.On(now.AddDate(0, 0, 1)),
		Remaining: time.Duration(toMidnight+fajr.Clock.Minutes()) * time.Minute,
		Tomorrow:  true,
	}, true
}

// Countdown is a non-negative hours/minutes/seconds split.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

// CountdownTo returns the time from now to target's next occurrence. When
// today's occurrence is at or before now, tomorrow's is used.
func CountdownTo(target Clock, now time.Time) Countdown {
	at := target.On(now)
	if !at.After(now) {
		at = target.On(now.AddDate(0, 0, 1))
	}
	return SplitDuration(at.Sub(now))
}

// SplitDuration floors d into hours, minutes and seconds, clamping negatives to zero.
func SplitDuration(d time.Duration) Countdown {
	if d <= 0 {
		return Countdown{}
	}
	total := int(d / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// Duration converts the countdown back into a duration.
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour + time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// FormatHoursMinutes formats d as "Xh Ym", always including the hour.
func FormatHoursMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatRemaining formats a duration as "Xh Ym", or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// RemainingText renders Remaining as "Xh Ym".
func (r NextPrayerResult) RemainingText() string {
	return FormatHoursMinutes(r.Remaining)
}

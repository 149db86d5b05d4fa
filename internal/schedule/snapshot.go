package schedule

import (
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

// Snapshot is a Day evaluated against a moment in time.
type Snapshot struct {
	Day        Day
	Now        time.Time
	Classified prayer.Schedule
	Next       prayer.NextPrayerResult
	HasNext    bool
}

// At classifies the day's schedule and finds the next prayer at now.
func (d Day) At(now time.Time, p prayer.Policy) Snapshot {
	next, ok := prayer.NextPrayer(d.Schedule, now)
	return Snapshot{
		Day:        d,
		Now:        now,
		Classified: prayer.Classify(d.Schedule, now, p),
		Next:       next,
		HasNext:    ok,
	}
}

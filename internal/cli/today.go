package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/display"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

func runToday(cmd *cobra.Command, args []string) error {
	l, err := newLookup(cmd)
	if err != nil {
		return err
	}

	day, err := l.today(cmd.Context())
	if err != nil {
		return err
	}

	snap := day.At(localNow(day), l.cfg.Policy())
	layout := timeLayout(l.cfg)
	out := cmd.OutOrStdout()

	if FlagJSON {
		return writeJSON(out, todayJSONFrom(snap, l.methodName(), layout))
	}

	printTodayRich(out, snap, l.methodName(), layout)
	return nil
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, snap schedule.Snapshot, method, layout string) {
	day := snap.Day

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", locationLabel(&day))
	if day.Meta.Timezone != "" {
		fmt.Fprintf(w, "  %s\n", day.Meta.Timezone)
	}
	fmt.Fprintf(w, "  %s\n", formatGregorianDate(&day))
	if hijri := day.DateInfo.Hijri.Format(); hijri != "" {
		fmt.Fprintf(w, "  %s\n", hijri)
	}
	fmt.Fprintln(w)

	for _, e := range snap.Classified.Entries() {
		line := fmt.Sprintf("  %-8s  %s", e.Name, e.Clock.On(snap.Now).Format(layout))

		switch {
		case snap.HasNext && !snap.Next.Tomorrow && e.Name == snap.Next.Name:
			suffix := fmt.Sprintf("  <- next in %s", prayer.FormatRemaining(snap.Next.Remaining))
			fmt.Fprintln(w, display.Accent(line+suffix))
		default:
			if label := display.StatusLabel(e.Status); label != "" {
				line += "  " + label
			}
			fmt.Fprintln(w, display.Status(e.Status, line))
		}
	}

	if snap.HasNext && snap.Next.Tomorrow {
		fmt.Fprintln(w)
		fmt.Fprintln(w, display.Accent(fmt.Sprintf("  Next: %s tomorrow at %s (in %s)",
			snap.Next.Name, prayer.FormatClock(snap.Next.Clock, layout), prayer.FormatRemaining(snap.Next.Remaining))))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Dim("Method: "+method))
	fmt.Fprintln(w)
}

// locationLabel is the postcode, or the coordinates for GPS lookups.
func locationLabel(d *schedule.Day) string {
	if d.Query.Postcode != "" {
		return d.Query.Postcode
	}
	return "GPS " + d.Coordinates.String()
}

// formatGregorianDate prefers the API's date and falls back to the schedule's.
func formatGregorianDate(d *schedule.Day) string {
	g := d.DateInfo.Gregorian
	if g.Day != "" && g.Month.En != "" && g.Year != "" {
		return g.Day + " " + g.Month.En + " " + g.Year
	}
	return d.Schedule.Date().Format("02 Jan 2006")
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Method   string            `json:"method"`
	Prayers  []todayJSONPrayer `json:"prayers"`
	Next     *todayJSONNext    `json:"next"`
}

type todayJSONLocation struct {
	Postcode  string  `json:"postcode,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri,omitempty"`
}

type todayJSONPrayer struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
	Tomorrow  bool   `json:"tomorrow"`
}

func todayJSONFrom(snap schedule.Snapshot, method, layout string) todayJSON {
	day := snap.Day
	out := todayJSON{
		Location: todayJSONLocation{
			Postcode:  day.Query.Postcode,
			Timezone:  day.Meta.Timezone,
			Latitude:  day.Coordinates.Latitude,
			Longitude: day.Coordinates.Longitude,
		},
		Date: todayJSONDate{
			Gregorian: formatGregorianDate(&day),
			Hijri:     day.DateInfo.Hijri.Format(),
		},
		Method: method,
	}

	for _, e := range snap.Classified.Entries() {
		out.Prayers = append(out.Prayers, todayJSONPrayer{
			Name:   strings.ToLower(string(e.Name)),
			Time:   prayer.FormatClock(e.Clock, layout),
			Status: string(e.Status),
		})
	}

	if snap.HasNext {
		out.Next = &todayJSONNext{
			Prayer:    strings.ToLower(string(snap.Next.Name)),
			Time:      prayer.FormatClock(snap.Next.Clock, layout),
			Remaining: prayer.FormatRemaining(snap.Next.Remaining),
			Tomorrow:  snap.Next.Tomorrow,
		}
	}
	return out
}

// writeJSON prints v indented.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Package forecast builds multi-day prayer timetables and exports them as PDF
// or plain text.
package forecast

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/display"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

// DefaultDays is the length of a forecast when none is given.
const DefaultDays = 30

// Row is one day of the table.
type Row struct {
	Date  time.Time
	Hijri string
	Times []string // in prayer.Names order
}

// Table is a forecast ready for export.
type Table struct {
	Location  string
	Method    string
	Generated time.Time
	Rows      []Row
	// Skipped lists days that could not be fetched.
	Skipped []time.Time
}

// Build turns a range lookup into a table.
func Build(res *schedule.RangeResult, method string, now time.Time) Table {
	t := Table{
		Location:  locationLabel(res.Query),
		Method:    method,
		Generated: now,
	}
	for _, d := range res.Days {
		row := Row{Date: d.Schedule.Date(), Hijri: d.DateInfo.Hijri.Format()}
		for _, e := range d.Schedule.Entries() {
			row.Times = append(row.Times, e.Clock.String())
		}
		t.Rows = append(t.Rows, row)
	}
	for _, f := range res.Failed {
		t.Skipped = append(t.Skipped, f.Date)
	}
	return t
}

func locationLabel(q schedule.Query) string {
	if q.Postcode != "" {
		return q.Postcode
	}
	return "GPS Location (" + q.Coordinates.String() + ")"
}

// Title is the heading used in every export.
func (t Table) Title() string {
	return fmt.Sprintf("Prayer Times - %d Day Forecast", len(t.Rows)+len(t.Skipped))
}

// Headers returns the column headings.
func Headers() []string {
	h := []string{"Date"}
	for _, n := range prayer.Names {
		h = append(h, string(n))
	}
	return h
}

// DisplayTable renders rows into a terminal table, highlighting today.
func (t Table) DisplayTable(today time.Time) *display.Table {
	tbl := display.NewTable(Headers())
	for i, r := range t.Rows {
		tbl.AddRow(append([]string{r.Date.Format("Mon 02 Jan")}, r.Times...))
		if sameDay(r.Date, today) {
			tbl.SetHighlightRow(i)
		}
	}
	return tbl
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/display"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long: "Query a specific prayer time for today, or across multiple days with --days.\n" +
			"Prayer names: " + strings.Join(prayerNames(), ", ") + " (case-insensitive).",
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

func prayerNames() []string {
	names := make([]string, len(prayer.Names))
	for i, n := range prayer.Names {
		names[i] = string(n)
	}
	return names
}

type queryJSONDay struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type queryJSON struct {
	Prayer   string         `json:"prayer"`
	Location string         `json:"location"`
	Days     []queryJSONDay `json:"days"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, err := prayer.ParseName(args[0])
	if err != nil {
		return fmt.Errorf("unknown prayer %q: must be one of %s", args[0], strings.Join(prayerNames(), ", "))
	}

	days := 1
	if flagQueryDays != "" {
		if days, err = parseDays(flagQueryDays); err != nil {
			return err
		}
	}

	l, err := newLookup(cmd)
	if err != nil {
		return err
	}

	var list []schedule.Day
	if days == 1 {
		day, err := l.today(cmd.Context())
		if err != nil {
			return err
		}
		list = []schedule.Day{*day}
	} else {
		res, err := l.service.Range(cmd.Context(), l.query, clock(), days)
		if err != nil {
			return err
		}
		if len(res.Days) == 0 && len(res.Failed) > 0 {
			return res.Failed[0].Err
		}
		list = res.Days
	}

	layout := timeLayout(l.cfg)
	today := clock().Format("2006-01-02")
	out := queryJSON{Prayer: string(name), Location: l.query.Label()}
	tbl := display.NewTable([]string{"Date", string(name)})
	for _, d := range list {
		e, ok := d.Schedule.Get(name)
		if !ok {
			continue
		}
		date := d.Schedule.Date()
		row := queryJSONDay{Date: date.Format("2006-01-02"), Time: prayer.FormatClock(e.Clock, layout)}
		if row.Date == today {
			tbl.SetHighlightRow(len(out.Days))
		}
		tbl.AddRow([]string{date.Format("Mon 02 Jan"), row.Time})
		out.Days = append(out.Days, row)
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, out)
	}

	if days == 1 && len(out.Days) == 1 {
		fmt.Fprintf(w, "%s %s\n", name, out.Days[0].Time)
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("%s - %d Days", name, len(out.Days))))
	fmt.Fprintf(w, "  %s\n", l.query.Label())
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

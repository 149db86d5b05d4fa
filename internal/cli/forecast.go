package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/display"
	"github.com/smokyabdulrahman/salahclock/internal/forecast"
)

var (
	flagExport string
	flagOutput string
)

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagExport, "export", "", "Write the table to a file instead: pdf or text")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Export file path (default: prayer-times-YYYY-MM-DD.pdf or .txt)")
}

func newForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "forecast [days]",
		Aliases: []string{"list"},
		Short:   "Show prayer times for multiple days",
		Long: fmt.Sprintf("Display a table of prayer times for N days (default: %d, at most %d).\n"+
			"With --export, save the table as a PDF or text file.", forecast.DefaultDays, forecast.DefaultDays),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, args, forecast.DefaultDays)
		},
	}
	addExportFlags(cmd)
	return cmd
}

func newWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'forecast 7'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, nil, 7)
		},
	}
	addExportFlags(cmd)
	return cmd
}

func newMonthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'forecast 30'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, nil, 30)
		},
	}
	addExportFlags(cmd)
	return cmd
}

// parseDays accepts a positive integer, "week" or "month".
func parseDays(s string) (int, error) {
	switch strings.ToLower(s) {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number of days: %q (must be a positive integer, week or month)", s)
	}
	return n, nil
}

// runForecast is the handler for forecast, week and month.
func runForecast(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := parseDays(args[0])
		if err != nil {
			return err
		}
		days = n
	}

	var format forecast.Format
	if flagExport != "" {
		f, err := forecast.ParseFormat(flagExport)
		if err != nil {
			return err
		}
		format = f
	}

	l, err := newLookup(cmd)
	if err != nil {
		return err
	}

	now := clock()
	res, err := l.service.Range(cmd.Context(), l.query, now, days)
	if err != nil {
		return err
	}
	if len(res.Days) == 0 && len(res.Failed) > 0 {
		return res.Failed[0].Err
	}

	t := forecast.Build(res, l.methodName(), now)
	out := cmd.OutOrStdout()

	switch {
	case format != "":
		return exportForecast(out, t, format, now)
	case FlagJSON:
		return writeJSON(out, forecastJSONFrom(t))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(t.Title()))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", t.Location)
	fmt.Fprintf(out, "  %s\n", display.Dim("Method: "+t.Method))
	fmt.Fprintln(out)
	fmt.Fprint(out, t.DisplayTable(now).Render())
	if len(t.Skipped) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s\n", display.Yellow("Could not fetch: "+skippedList(t.Skipped)))
	}
	fmt.Fprintln(out)
	return nil
}

func skippedList(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.Format("Mon 02 Jan")
	}
	return strings.Join(parts, ", ")
}

// exportForecast writes t to a file. The file is named after the format
// actually written, so a PDF that fell back to text gets a .txt name.
func exportForecast(w io.Writer, t forecast.Table, f forecast.Format, now time.Time) error {
	var buf bytes.Buffer
	written, err := forecast.Export(&buf, t, f)
	if err != nil {
		return fmt.Errorf("failed to export forecast: %w", err)
	}

	path := flagOutput
	if path == "" {
		path = "prayer-times-" + now.Format("2006-01-02") + written.Extension()
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if written != f {
		fmt.Fprintln(w, display.Yellow("PDF generation failed; saved as plain text instead."))
	}
	fmt.Fprintf(w, "Saved %d-day forecast to %s\n", len(t.Rows), path)
	return nil
}

type forecastJSON struct {
	Title    string            `json:"title"`
	Location string            `json:"location"`
	Method   string            `json:"method"`
	Days     []forecastJSONDay `json:"days"`
	Skipped  []string          `json:"skipped,omitempty"`
}

type forecastJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri,omitempty"`
	Timings map[string]string `json:"timings"`
}

func forecastJSONFrom(t forecast.Table) forecastJSON {
	out := forecastJSON{Title: t.Title(), Location: t.Location, Method: t.Method}
	headers := forecast.Headers()[1:]
	for _, r := range t.Rows {
		timings := make(map[string]string, len(r.Times))
		for i, v := range r.Times {
			if i < len(headers) {
				timings[strings.ToLower(headers[i])] = v
			}
		}
		out.Days = append(out.Days, forecastJSONDay{
			Date:    r.Date.Format("2006-01-02"),
			Hijri:   r.Hijri,
			Timings: timings,
		})
	}
	for _, d := range t.Skipped {
		out.Skipped = append(out.Skipped, d.Format("2006-01-02"))
	}
	return out
}

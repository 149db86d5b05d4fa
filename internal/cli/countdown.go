package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/tui"
)

// runTUI is replaced in tests.
var runTUI = tui.Run

func newCountdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "countdown",
		Aliases: []string{"live"},
		Short:   "Live countdown to the next prayer",
		Long: "Show today's schedule with a countdown to the next prayer that updates every second.\n" +
			"The schedule reloads after midnight. Press q to quit.",
		Args: cobra.NoArgs,
		RunE: runCountdown,
	}
}

func runCountdown(cmd *cobra.Command, args []string) error {
	l, err := newLookup(cmd)
	if err != nil {
		return err
	}

	day, err := l.today(cmd.Context())
	if err != nil {
		return err
	}

	m := tui.New(day, tui.Options{
		Loader:     l.day,
		Policy:     l.cfg.Policy(),
		TimeFormat: timeLayout(l.cfg),
		Now:        func() time.Time { return localNow(day) },
	})
	return runTUI(cmd.Context(), m)
}

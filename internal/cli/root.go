package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
	"github.com/smokyabdulrahman/salahclock/internal/config"
	"github.com/smokyabdulrahman/salahclock/internal/display"
	"github.com/smokyabdulrahman/salahclock/internal/logger"
)

// Global flags shared across all subcommands.
var (
	FlagPostcode   string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagWindow     int
	FlagOverlap    string
	FlagDebug      bool
	FlagLogFile    string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the salahclock CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "salahclock",
		Short:   "UK prayer times by postcode",
		Long:    "Prayer times for any UK postcode, with a live countdown to the next prayer,\nmulti-day forecasts and Hijri dates. Times come from the Al Adhan API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Options{
				Debug:   FlagDebug,
				Console: true,
				File:    FlagLogFile,
				Out:     cmd.ErrOrStderr(),
			}); err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			if FlagJSON {
				display.SetEnabled(false)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&FlagPostcode, "postcode", "p", "", "UK postcode (takes precedence over config and coordinates)")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", -1, "Override calculation method (see `salahclock methods`)")
	pf.IntVar(&FlagSchool, "school", -1, "Override school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/salahclock/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.IntVar(&FlagWindow, "window", 30, "Minutes either side of a prayer it counts as current")
	pf.StringVar(&FlagOverlap, "overlap", "", "When windows overlap: keep-all, earliest or latest")
	pf.BoolVar(&FlagDebug, "debug", false, "Log debug output to stderr")
	pf.StringVar(&FlagLogFile, "log-file", "", "Also write logs to this file (rotated)")

	// Register subcommands.
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newCountdownCmd())
	rootCmd.AddCommand(newForecastCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newHijriCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRemindCmd())

	return rootCmd
}

// ErrorMessage is what the binary prints for err. Classified errors show their
// user-facing message; the full chain goes to the debug log.
func ErrorMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		log.Debug().Err(err).Str("kind", e.Kind.String()).Msg("command failed")
		return apperr.UserMessage(err)
	}
	return err.Error()
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	defaults := config.Defaults()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	// A postcode on the command line beats coordinates from the config file,
	// and coordinates on the command line beat a configured postcode.
	if flagWasSet(flags, root, "postcode") {
		cfg.Postcode = FlagPostcode
	}
	if flagWasSet(flags, root, "latitude") || flagWasSet(flags, root, "longitude") {
		cfg.Latitude, cfg.Longitude = FlagLatitude, FlagLongitude
		if !flagWasSet(flags, root, "postcode") {
			cfg.Postcode = ""
		}
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = &FlagMethod
	} else if cfg.Method == nil {
		cfg.Method = defaults.Method
	}
	if flagWasSet(flags, root, "school") {
		cfg.School = &FlagSchool
	} else if cfg.School == nil {
		cfg.School = defaults.School
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "window") {
		cfg.Window = &FlagWindow
	} else if cfg.Window == nil {
		cfg.Window = defaults.Window
	}
	if flagWasSet(flags, root, "overlap") {
		cfg.Overlap = FlagOverlap
	} else if cfg.Overlap == "" {
		cfg.Overlap = defaults.Overlap
	}

	// Time format: CLI flag > config > default ("24h").
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}

	return &cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// timeLayout maps the time_format setting to a Go layout.
func timeLayout(cfg *config.Config) string {
	if cfg.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

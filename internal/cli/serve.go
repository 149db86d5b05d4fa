package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/app"
	"github.com/smokyabdulrahman/salahclock/internal/config"
	"github.com/smokyabdulrahman/salahclock/internal/logger"
)

var flagEnvFile string

func addEnvFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "Environment file with the server settings")
}

// loadServerEnv reads the server environment and switches logging to the
// server's settings.
func loadServerEnv() (*config.Env, error) {
	env, err := config.LoadEnv(flagEnvFile)
	if err != nil {
		return nil, err
	}
	debug := env.Debug || FlagDebug
	level := "info"
	if debug {
		level = "debug"
	}
	if err := logger.Init(logger.Options{
		Debug:   debug,
		Level:   level,
		Console: !env.IsProduction(),
		File:    env.LogFile,
	}); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return env, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Long: "Serve the JSON API and run the scheduled reminder and broadcast jobs.\n" +
			"Settings come from the environment (DATABASE_URL, JWT_SECRET, ...), optionally loaded from --env-file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadServerEnv()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
	addEnvFlag(cmd)
	return cmd
}

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send today's reminder emails once",
		Long: "Run the daily reminder job once and print a summary. Recipients who\n" +
			"already received today's email are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadServerEnv()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer a.Close()

			m := a.Mailer()
			if m == nil {
				return errors.New("SMTP_HOST is not set")
			}
			res, err := a.ReminderJob(m).Run(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("sent", res.Sent).Int("failed", res.Failed).Msg("[reminder] run finished")

			if FlagJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d of %d reminders (%d skipped, %d failed)\n", res.Sent, res.Total, res.Skipped, res.Failed)
			for _, e := range res.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e)
			}
			return nil
		},
	}
	addEnvFlag(cmd)
	return cmd
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/app"
	"github.com/smokyabdulrahman/salahclock/internal/config"
	"github.com/smokyabdulrahman/salahclock/internal/logger"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("salahclock-server", flag.ContinueOnError)
	fs.SetOutput(stdout)

	envFile := fs.String("env-file", ".env", "Environment file with the server settings")
	addr := fs.String("addr", "", "Listen address (overrides SERVER_ADDRESS)")
	migrateOnly := fs.Bool("migrate", false, "Apply database migrations and exit")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "salahclock-server %s\n", version)
		return nil
	}

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		env.ServerAddress = *addr
	}

	level := "info"
	if env.Debug || *debug {
		level = "debug"
	}
	if err := logger.Init(logger.Options{
		Level:   level,
		Console: !env.IsProduction(),
		File:    env.LogFile,
	}); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	a, err := app.New(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	if *migrateOnly {
		fmt.Fprintln(stdout, "Database is up to date.")
		return nil
	}

	log.Info().Str("version", version).Str("addr", env.ServerAddress).Msg("starting salahclock-server")
	return a.Serve(ctx)
}

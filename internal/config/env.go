package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/salahclock/internal/api"
)

// Env holds the server settings read from the environment.
type Env struct {
	Environment    string
	ServerAddress  string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	Timezone       string

	RedisAddress  string
	RedisUsername string
	RedisPassword string
	CacheDir      string

	PrayerMethod int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ReminderCron  string
	BroadcastCron string
	MQTTBroker    string

	LogFile string
	Debug   bool
}

// Server defaults.
const (
	DefaultServerAddress = ":8080"
	DefaultReminderCron  = "0 5 * * *"
	DefaultBroadcastCron = "* * * * *"
	DefaultTimezone      = "Europe/London"
	DefaultSMTPFrom      = "SalahClock <prayer-times@salahclock.uk>"
)

// LoadEnv loads .env files (if any) into the process environment and reads
// the server settings. Variables already set in the environment win over
// values from the files.
func LoadEnv(files ...string) (*Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return ReadEnv(os.Getenv)
}

// ReadEnv reads and validates the server settings using getenv.
func ReadEnv(getenv func(string) string) (*Env, error) {
	env := &Env{
		Environment:    getenv("APP_ENV"),
		ServerAddress:  orDefault(getenv("SERVER_ADDRESS"), DefaultServerAddress),
		DatabaseDriver: strings.ToLower(orDefault(getenv("DATABASE_DRIVER"), "postgres")),
		DatabaseURL:    getenv("DATABASE_URL"),
		JWTSecret:      getenv("JWT_SECRET"),
		Timezone:       orDefault(getenv("TIMEZONE"), DefaultTimezone),

		RedisAddress:  getenv("REDIS_ADDRESS"),
		RedisUsername: getenv("REDIS_USERNAME"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		CacheDir:      getenv("CACHE_DIR"),

		SMTPHost:     getenv("SMTP_HOST"),
		SMTPUsername: getenv("SMTP_USERNAME"),
		SMTPPassword: getenv("SMTP_PASSWORD"),
		SMTPFrom:     orDefault(getenv("SMTP_FROM"), DefaultSMTPFrom),

		ReminderCron:  orDefault(getenv("REMINDER_CRON"), DefaultReminderCron),
		BroadcastCron: orDefault(getenv("BROADCAST_CRON"), DefaultBroadcastCron),
		MQTTBroker:    getenv("MQTT_BROKER"),

		LogFile: getenv("LOG_FILE"),
	}

	if env.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if env.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if env.DatabaseDriver != "postgres" && env.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite", env.DatabaseDriver)
	}

	method, err := intOr(getenv("PRAYER_METHOD"), api.MethodMWL)
	if err != nil || api.MethodName(method) == "" {
		return nil, fmt.Errorf("invalid PRAYER_METHOD %q", getenv("PRAYER_METHOD"))
	}
	env.PrayerMethod = method

	port, err := intOr(getenv("SMTP_PORT"), 587)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", getenv("SMTP_PORT"), err)
	}
	env.SMTPPort = port

	if v := getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		env.Debug = debug
	}

	return env, nil
}

// IsProduction reports whether APP_ENV is "production".
func (e *Env) IsProduction() bool {
	return e.Environment == "production"
}

// MailEnabled reports whether an SMTP host is configured.
func (e *Env) MailEnabled() bool {
	return e.SMTPHost != ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

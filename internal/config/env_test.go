package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestReadEnv_Defaults(t *testing.T) {
	env, err := ReadEnv(envFrom(map[string]string{
		"DATABASE_URL": "postgres://localhost/salahclock",
		"JWT_SECRET":   "s3cret",
	}))
	if err != nil {
		t.Fatalf("ReadEnv: %v", err)
	}

	if env.ServerAddress != ":8080" {
		t.Errorf("ServerAddress = %q", env.ServerAddress)
	}
	if env.DatabaseDriver != "postgres" {
		t.Errorf("DatabaseDriver = %q", env.DatabaseDriver)
	}
	if env.PrayerMethod != 3 {
		t.Errorf("PrayerMethod = %d, want 3", env.PrayerMethod)
	}
	if env.ReminderCron != "0 5 * * *" {
		t.Errorf("ReminderCron = %q", env.ReminderCron)
	}
	if env.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q", env.Timezone)
	}
	if env.SMTPPort != 587 || env.MailEnabled() {
		t.Errorf("SMTP defaults wrong: port=%d enabled=%v", env.SMTPPort, env.MailEnabled())
	}
	if env.IsProduction() {
		t.Error("empty APP_ENV should not be production")
	}
}

func TestReadEnv_Required(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"JWT_SECRET": "x"}},
		{"missing secret", map[string]string{"DATABASE_URL": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadEnv(envFrom(tt.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReadEnv_Invalid(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "y"}
	}

	tests := []struct {
		key, value string
	}{
		{"DATABASE_DRIVER", "mysql"},
		{"PRAYER_METHOD", "six"},
		{"PRAYER_METHOD", "6"},
		{"SMTP_PORT", "smtp"},
		{"DEBUG", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			m := base()
			m[tt.key] = tt.value
			if _, err := ReadEnv(envFrom(m)); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestReadEnv_Overrides(t *testing.T) {
	env, err := ReadEnv(envFrom(map[string]string{
		"APP_ENV":         "production",
		"DATABASE_DRIVER": "SQLite",
		"DATABASE_URL":    "file:salahclock.db",
		"JWT_SECRET":      "y",
		"PRAYER_METHOD":   "15",
		"SMTP_HOST":       "smtp.example.com",
		"SMTP_PORT":       "2525",
		"DEBUG":           "true",
		"MQTT_BROKER":     "tcp://localhost:1883",
	}))
	if err != nil {
		t.Fatalf("ReadEnv: %v", err)
	}

	if !env.IsProduction() || env.DatabaseDriver != "sqlite" || env.PrayerMethod != 15 {
		t.Errorf("unexpected env: %+v", env)
	}
	if !env.MailEnabled() || env.SMTPPort != 2525 || !env.Debug {
		t.Errorf("unexpected env: %+v", env)
	}
	if env.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", env.MQTTBroker)
	}
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_URL=file:test.db\nJWT_SECRET=from-file\nSERVER_ADDRESS=:9090\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Already-set variables take precedence over the file.
	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("JWT_SECRET")

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("JWT_SECRET")
	})

	if env.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q, want from-file", env.JWTSecret)
	}
	if env.ServerAddress != ":7070" {
		t.Errorf("ServerAddress = %q, want :7070", env.ServerAddress)
	}
}

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	t.Setenv("DATABASE_URL", "x")
	t.Setenv("JWT_SECRET", "y")

	if _, err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadEnv with missing file: %v", err)
	}
}

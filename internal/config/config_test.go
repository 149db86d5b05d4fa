package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

// tempConfigPath returns a path to a config file inside a temp directory.
func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

// --- Defaults ---

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.Method == nil || *d.Method != 3 {
		t.Errorf("Defaults().Method = %v, want 3 (MWL)", d.Method)
	}
	if d.School == nil || *d.School != -1 {
		t.Errorf("Defaults().School = %v, want -1", d.School)
	}
	if d.TimeFormat != "24h" {
		t.Errorf("Defaults().TimeFormat = %q, want %q", d.TimeFormat, "24h")
	}
	if d.Window == nil || *d.Window != 30 {
		t.Errorf("Defaults().Window = %v, want 30", d.Window)
	}
	if d.Overlap != "keep-all" {
		t.Errorf("Defaults().Overlap = %q, want keep-all", d.Overlap)
	}

	// Location is never defaulted.
	if d.Postcode != "" || d.Latitude != 0 || d.Longitude != 0 {
		t.Errorf("Defaults() should not set a location: %+v", d)
	}
	if d.CacheDir != "" {
		t.Errorf("Defaults().CacheDir = %q, want empty", d.CacheDir)
	}
}

// --- Dir and Path with XDG ---

func TestDir_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "salahclock")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestDir_FallbackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".config", "salahclock")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestPath_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "salahclock", "config.json")
	if p != want {
		t.Errorf("Path() = %q, want %q", p, want)
	}
}

// --- LoadFrom ---

func TestLoadFrom_NonExistentFile(t *testing.T) {
	cfg, err := LoadFrom("/no/such/file.json")
	if err != nil {
		t.Fatalf("LoadFrom non-existent should not error, got: %v", err)
	}
	if cfg.Postcode != "" || cfg.Method != nil {
		t.Errorf("LoadFrom non-existent should return empty config, got %+v", cfg)
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	path := tempConfigPath(t)

	method := 15
	data := Config{
		Postcode:   "E1 6AN",
		Method:     &method,
		TimeFormat: "12h",
	}
	raw, _ := json.MarshalIndent(data, "", "  ")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	if cfg.Postcode != "E1 6AN" {
		t.Errorf("Postcode = %q, want %q", cfg.Postcode, "E1 6AN")
	}
	if cfg.Method == nil || *cfg.Method != 15 {
		t.Errorf("Method = %v, want 15", cfg.Method)
	}
	if cfg.TimeFormat != "12h" {
		t.Errorf("TimeFormat = %q, want %q", cfg.TimeFormat, "12h")
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom with invalid JSON should error")
	}
}

func TestLoadFrom_MethodAndWindowZero(t *testing.T) {
	// Zero is meaningful for both method (Jafari) and window (windowless).
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"method": 0, "window": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Method == nil || *cfg.Method != 0 {
		t.Errorf("Method = %v, want 0", cfg.Method)
	}
	if cfg.Window == nil || *cfg.Window != 0 {
		t.Errorf("Window = %v, want 0", cfg.Window)
	}
}

// --- SaveTo ---

func TestSaveTo_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	method := 2
	cfg := &Config{Postcode: "SW1A 1AA", Method: &method}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("saved file has invalid JSON: %v", err)
	}
	if loaded.Postcode != "SW1A 1AA" {
		t.Errorf("loaded Postcode = %q", loaded.Postcode)
	}
	if data[len(data)-1] != '\n' {
		t.Error("saved file should end with a newline")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	method := 0
	school := 1
	window := 15
	original := &Config{
		Postcode:   "M1 1AE",
		Latitude:   53.4808,
		Longitude:  -2.2426,
		Method:     &method,
		School:     &school,
		TimeFormat: "12h",
		CacheDir:   "/tmp/cache",
		Window:     &window,
		Overlap:    "latest",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	for _, key := range ValidKeys {
		want, _ := original.Get(key)
		got, _ := loaded.Get(key)
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

// --- ResetAt ---

func TestResetAt_DeletesFile(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{Postcode: "SW1A 1AA"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	if err := ResetAt(path); err != nil {
		t.Fatalf("ResetAt error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ResetAt should have deleted the file")
	}
}

func TestResetAt_NonExistentFile(t *testing.T) {
	if err := ResetAt("/no/such/file.json"); err != nil {
		t.Errorf("ResetAt on non-existent file should not error, got: %v", err)
	}
}

// --- Set ---

func TestSet_Postcode(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{"SW1A 1AA", "SW1A 1AA", false},
		{"sw1a1aa", "SW1A 1AA", false},
		{"  e1 6an ", "E1 6AN", false},
		{"12345", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("postcode", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(postcode, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if cfg.Postcode != tt.want {
				t.Errorf("Postcode = %q, want %q", cfg.Postcode, tt.want)
			}
		})
	}
}

func TestSet_Latitude(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{"valid positive", "51.5074", 51.5074, false},
		{"valid negative", "-33.8688", -33.8688, false},
		{"boundary 90", "90", 90, false},
		{"boundary -90", "-90", -90, false},
		{"too high", "91", 0, true},
		{"too low", "-91", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("latitude", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(latitude, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Latitude != tt.want {
				t.Errorf("Latitude = %f, want %f", cfg.Latitude, tt.want)
			}
		})
	}
}

func TestSet_Longitude(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{"valid negative", "-0.1278", -0.1278, false},
		{"boundary 180", "180", 180, false},
		{"boundary -180", "-180", -180, false},
		{"too high", "181", 0, true},
		{"not a number", "xyz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("longitude", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(longitude, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Longitude != tt.want {
				t.Errorf("Longitude = %f, want %f", cfg.Longitude, tt.want)
			}
		})
	}
}

func TestSet_Method(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"valid zero (Jafari)", "0", 0, false},
		{"MWL", "3", 3, false},
		{"valid 23", "23", 23, false},
		{"unassigned id", "6", 0, true},
		{"too high", "24", 0, true},
		{"negative", "-1", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("method", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(method, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && (cfg.Method == nil || *cfg.Method != tt.want) {
				t.Errorf("Method = %v, want %d", cfg.Method, tt.want)
			}
		})
	}
}

func TestSet_School(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"Shafi", "0", false},
		{"Hanafi", "1", false},
		{"invalid 2", "2", true},
		{"not a number", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("school", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(school, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestSet_TimeFormat(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"12h", false},
		{"24h", false},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("time_format", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(time_format, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestSet_Window(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"30", 30, false},
		{"0", 0, false},
		{"180", 180, false},
		{"181", 0, true},
		{"-5", 0, true},
		{"half an hour", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set("window", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(window, %q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && *cfg.Window != tt.want {
				t.Errorf("Window = %d, want %d", *cfg.Window, tt.want)
			}
		})
	}
}

func TestSet_Overlap(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("overlap", "Earliest"); err != nil {
		t.Fatal(err)
	}
	if cfg.Overlap != "earliest" {
		t.Errorf("Overlap = %q, want earliest", cfg.Overlap)
	}
	if err := cfg.Set("overlap", "first"); err == nil {
		t.Error("Set(overlap, first) should error")
	}
}

func TestSet_UnknownKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Set("city", "London"); err == nil {
		t.Fatal("Set with unknown key should error")
	}
}

// --- Get ---

func TestGet_EmptyConfig(t *testing.T) {
	cfg := &Config{}

	for _, key := range ValidKeys {
		got, err := cfg.Get(key)
		if err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
		if got != "" {
			t.Errorf("Get(%q) = %q, want empty for empty config", key, got)
		}
	}
}

func TestGet_UnknownKey(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Get("prayers"); err == nil {
		t.Fatal("Get with unknown key should error")
	}
}

// --- Policy ---

func TestPolicy(t *testing.T) {
	window := 10
	tests := []struct {
		name string
		cfg  Config
		want prayer.Policy
	}{
		{"unset", Config{}, prayer.DefaultPolicy()},
		{"window", Config{Window: &window}, prayer.Policy{Window: 10 * time.Minute, Overlap: prayer.OverlapKeepAll}},
		{"overlap", Config{Overlap: "latest"}, prayer.Policy{Window: 30 * time.Minute, Overlap: prayer.OverlapLatest}},
		{"bad overlap ignored", Config{Overlap: "???"}, prayer.DefaultPolicy()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Policy(); got != tt.want {
				t.Errorf("Policy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHasCoordinates(t *testing.T) {
	if (&Config{Latitude: 51.5}).HasCoordinates() {
		t.Error("latitude alone should not count")
	}
	if !(&Config{Latitude: 51.5, Longitude: -0.12}).HasCoordinates() {
		t.Error("both set should count")
	}
}

// --- MethodOrDefault / SchoolOrDefault ---

func TestMethodOrDefault(t *testing.T) {
	zero, four := 0, 4
	if got := (&Config{Method: &four}).MethodOrDefault(3); got != 4 {
		t.Errorf("MethodOrDefault = %d, want 4", got)
	}
	if got := (&Config{}).MethodOrDefault(3); got != 3 {
		t.Errorf("MethodOrDefault = %d, want 3 (default)", got)
	}
	if got := (&Config{Method: &zero}).MethodOrDefault(3); got != 0 {
		t.Errorf("MethodOrDefault = %d, want 0 (Jafari)", got)
	}
}

func TestSchoolOrDefault(t *testing.T) {
	one := 1
	if got := (&Config{School: &one}).SchoolOrDefault(0); got != 1 {
		t.Errorf("SchoolOrDefault = %d, want 1", got)
	}
	if got := (&Config{}).SchoolOrDefault(-1); got != -1 {
		t.Errorf("SchoolOrDefault = %d, want -1 (default)", got)
	}
}

// --- OmitEmpty JSON behavior ---

func TestConfig_OmitEmpty_JSON(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("empty config JSON = %s, want {}", data)
	}
}

func TestConfig_OmitEmpty_ZeroPointers(t *testing.T) {
	method, window := 0, 0
	data, err := json.Marshal(&Config{Method: &method, Window: &window})
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"method", "window"} {
		if _, ok := m[k]; !ok {
			t.Errorf("%s=0 should be present in JSON, but was omitted", k)
		}
	}
}

// --- Full integration: Set -> SaveTo -> LoadFrom -> Get ---

func TestSetSaveLoadGet_Integration(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{}
	for _, kv := range [][2]string{
		{"postcode", "sw1a1aa"},
		{"method", "3"},
		{"time_format", "12h"},
		{"window", "20"},
	} {
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			t.Fatalf("Set(%q): %v", kv[0], err)
		}
	}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		key, want string
	}{
		{"postcode", "SW1A 1AA"},
		{"method", "3"},
		{"time_format", "12h"},
		{"window", "20"},
	}

	for _, c := range checks {
		got, _ := loaded.Get(c.key)
		if got != c.want {
			t.Errorf("After save/load: Get(%q) = %q, want %q", c.key, got, c.want)
		}
	}
}

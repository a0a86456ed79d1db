package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TODO_CONFIG_FILE", "DATABASE_URL", "SECRET_KEY", "LOG_LEVEL", "PORT",
		"READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "RATE_LIMIT_ENABLED",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Profile
	}{
		{"development", "development", Development},
		{"testing", "testing", Testing},
		{"production", "production", Production},
		{"mixed case", " Production ", Production},
		{"default alias", "default", Development},
		{"empty", "", Development},
		{"unknown", "staging", Development},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseProfile(tt.in); got != tt.want {
				t.Errorf("ParseProfile(%q): got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadDevelopment(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("development")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("development profile should enable debug")
	}
	if cfg.DatabaseURL != DefaultDevelopmentDSN {
		t.Errorf("DatabaseURL: got %q, want %q", cfg.DatabaseURL, DefaultDevelopmentDSN)
	}
	if cfg.Driver() != DriverPostgres {
		t.Errorf("Driver: got %q, want postgres", cfg.Driver())
	}
	if !cfg.RateLimit.Enabled || !cfg.CSRFEnabled {
		t.Error("development profile should keep rate limiting and the CSRF guard on")
	}
	if !cfg.UsesDefaultSecret() {
		t.Error("expected built-in secret when SECRET_KEY is unset")
	}
}

func TestLoadDevelopmentReadsDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/dev_override")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != Development {
		t.Errorf("Profile: got %q, want development", cfg.Profile)
	}
	if cfg.DatabaseURL != "postgresql://u:p@h:5432/dev_override" {
		t.Errorf("DatabaseURL: got %q", cfg.DatabaseURL)
	}
}

func TestLoadTesting(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/should_be_ignored")

	cfg, err := Load("testing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Testing {
		t.Error("testing profile should set Testing")
	}
	if cfg.CSRFEnabled {
		t.Error("testing profile should disable the CSRF guard")
	}
	if cfg.RateLimit.Enabled {
		t.Error("testing profile should disable rate limiting")
	}
	if cfg.DatabaseURL != DefaultTestingDSN {
		t.Errorf("DatabaseURL: got %q, want %q", cfg.DatabaseURL, DefaultTestingDSN)
	}
	dsn, inMemory := cfg.SQLiteDSN()
	if !inMemory {
		t.Errorf("SQLiteDSN(%q) should be in-memory", dsn)
	}
}

func TestLoadProductionRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load("production")
	if !errors.Is(err, ErrMissingDatabaseURL) {
		t.Fatalf("Load: got %v, want ErrMissingDatabaseURL", err)
	}
}

func TestLoadProductionWithDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/prod_db")

	cfg, err := Load("production")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Debug {
		t.Error("production profile should disable debug")
	}
}

func TestLoadRejectsMalformedPostgresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@h:notaport/db")

	if _, err := Load("production"); err == nil {
		t.Fatal("expected malformed DATABASE_URL to fail validation")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load("development")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Addr() != ":9090" {
		t.Errorf("Port: got %d (%s), want 9090", cfg.Server.Port, cfg.Addr())
	}
	if cfg.RateLimit.Enabled {
		t.Error("RATE_LIMIT_ENABLED=false should disable rate limiting")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins: got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.UsesDefaultSecret() {
		t.Error("SECRET_KEY should replace the built-in secret")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "70000")

	if _, err := Load("development"); !errors.Is(err, ErrInvalidPort) {
		t.Fatalf("Load: got %v, want ErrInvalidPort", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "todo.toml")
	content := `log_level = "error"

[server]
port = 7070

[rate_limit]
requests_per_hour = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TODO_CONFIG_FILE", path)

	cfg, err := Load("development")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel: got %q, want error", cfg.LogLevel)
	}
	if cfg.RateLimit.RequestsPerHour != 10 {
		t.Errorf("RequestsPerHour: got %d, want 10", cfg.RateLimit.RequestsPerHour)
	}
	if cfg.RateLimit.RequestsPerDay != DefaultRequestsPerDay {
		t.Errorf("RequestsPerDay: got %d, want untouched default", cfg.RateLimit.RequestsPerDay)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout: got %v, want untouched default", cfg.Server.ReadTimeout)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	if _, err := Load("development"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDriverAndSQLiteDSN(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver Driver
		wantDSN    string
		wantMemory bool
	}{
		{"postgres://u:p@h/db", DriverPostgres, "", false},
		{"host=h user=u dbname=db", DriverPostgres, "", false},
		{"sqlite://:memory:", DriverSQLite, ":memory:?_time_format=sqlite", true},
		{"sqlite://todo.db", DriverSQLite, "todo.db?_time_format=sqlite", false},
		{"file:todo.db?cache=shared", DriverSQLite, "file:todo.db?cache=shared&_time_format=sqlite", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := &Config{DatabaseURL: tt.url}
			if got := cfg.Driver(); got != tt.wantDriver {
				t.Fatalf("Driver: got %q, want %q", got, tt.wantDriver)
			}
			if tt.wantDriver != DriverSQLite {
				return
			}
			dsn, inMemory := cfg.SQLiteDSN()
			if dsn != tt.wantDSN || inMemory != tt.wantMemory {
				t.Errorf("SQLiteDSN: got (%q, %v), want (%q, %v)", dsn, inMemory, tt.wantDSN, tt.wantMemory)
			}
		})
	}
}

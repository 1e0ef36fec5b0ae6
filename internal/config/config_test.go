package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Database.Source != SourceCSV {
		t.Errorf("Source = %q, want csv", cfg.Database.Source)
	}
	if cfg.Database.CSVFile != "main_data.csv" {
		t.Errorf("CSVFile = %q, want main_data.csv", cfg.Database.CSVFile)
	}
	if !cfg.Database.CacheEnabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoadFile_INIAndEnvOverride(t *testing.T) {
	path := writeINI(t, `
[server]
port = 9000
read_timeout = 3s

[data]
csv_file = /data/orders.csv
cache_enabled = false

[log]
level = DEBUG

[security]
allowed_origins = http://a.example, http://b.example
`)
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.CSVFile != "/data/orders.csv" {
		t.Errorf("CSVFile = %q", cfg.Database.CSVFile)
	}
	if cfg.Database.CacheEnabled {
		t.Error("cache_enabled = false in file should disable cache")
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logger.Level)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}},
		{"bad source", map[string]string{"DATA_SOURCE": "parquet"}},
		{"postgres without dsn", map[string]string{"DATA_SOURCE": "postgres"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "trace"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero rps", map[string]string{"SECURITY_RATE_LIMIT_RPS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFile(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.ini")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_PostgresSource(t *testing.T) {
	t.Setenv("DATA_SOURCE", "POSTGRES")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/shop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Source != SourcePostgres {
		t.Errorf("Source = %q, want postgres", cfg.Database.Source)
	}
	if cfg.Database.PostgresTable != "transactions" {
		t.Errorf("PostgresTable = %q", cfg.Database.PostgresTable)
	}
}

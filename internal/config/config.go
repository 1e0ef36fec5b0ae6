package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Source        string
	CSVFile       string
	PostgresDSN   string `json:"-"`
	PostgresTable string
	CacheEnabled  bool
	CacheDir      string
	LoadTimeout   time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load reads the optional INI file named by CONFIG_FILE and then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit INI path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	file := ini.Empty()
	if path != "" {
		f, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		file = f
	}
	src := source{file: file}

	cfg := &Config{
		Server: ServerConfig{
			Host:            src.String("server", "host", "SERVER_HOST", "localhost"),
			Port:            src.Int("server", "port", "SERVER_PORT", 8084),
			ReadTimeout:     src.Duration("server", "read_timeout", "SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    src.Duration("server", "write_timeout", "SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     src.Duration("server", "idle_timeout", "SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: src.Duration("server", "shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Source:        strings.ToLower(src.String("data", "source", "DATA_SOURCE", SourceCSV)),
			CSVFile:       src.String("data", "csv_file", "CSV_FILE", "main_data.csv"),
			PostgresDSN:   src.String("data", "postgres_dsn", "POSTGRES_DSN", ""),
			PostgresTable: src.String("data", "postgres_table", "POSTGRES_TABLE", "transactions"),
			CacheEnabled:  src.Bool("data", "cache_enabled", "CACHE_ENABLED", true),
			CacheDir:      src.String("data", "cache_dir", "CACHE_DIR", ".cache"),
			LoadTimeout:   src.Duration("data", "load_timeout", "DATA_LOAD_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(src.String("log", "level", "LOG_LEVEL", "info")),
			Format: strings.ToLower(src.String("log", "format", "LOG_FORMAT", "json")),
		},
		Security: SecurityConfig{
			EnableRateLimit: src.Bool("security", "rate_limit_enabled", "SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    src.Int("security", "rate_limit_rps", "SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  src.Int("security", "rate_limit_burst", "SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  src.Strings("security", "allowed_origins", "SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  src.Strings("security", "trusted_proxies", "SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Database.Source {
	case SourceCSV:
		if c.Database.CSVFile == "" {
			return fmt.Errorf("CSV file path cannot be empty")
		}
	case SourcePostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required when data source is %q", SourcePostgres)
		}
		if c.Database.PostgresTable == "" {
			return fmt.Errorf("postgres table cannot be empty")
		}
	default:
		return fmt.Errorf("invalid data source %q, must be one of: %s, %s", c.Database.Source, SourceCSV, SourcePostgres)
	}

	if c.Database.LoadTimeout <= 0 {
		return fmt.Errorf("data load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// source resolves a setting from the environment first, then the INI file,
// then the default.
type source struct {
	file *ini.File
}

func (s source) key(section, name string) (*ini.Key, bool) {
	sec := s.file.Section(section)
	if !sec.HasKey(name) {
		return nil, false
	}
	return sec.Key(name), true
}

func (s source) String(section, name, env, def string) string {
	if value := os.Getenv(env); value != "" {
		return value
	}
	if k, ok := s.key(section, name); ok {
		return k.MustString(def)
	}
	return def
}

func (s source) Int(section, name, env string, def int) int {
	if value := os.Getenv(env); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	if k, ok := s.key(section, name); ok {
		return k.MustInt(def)
	}
	return def
}

func (s source) Bool(section, name, env string, def bool) bool {
	if value := os.Getenv(env); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	if k, ok := s.key(section, name); ok {
		return k.MustBool(def)
	}
	return def
}

func (s source) Duration(section, name, env string, def time.Duration) time.Duration {
	if value := os.Getenv(env); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	if k, ok := s.key(section, name); ok {
		return k.MustDuration(def)
	}
	return def
}

func (s source) Strings(section, name, env string, def []string) []string {
	if value := os.Getenv(env); value != "" {
		return splitList(value)
	}
	if k, ok := s.key(section, name); ok {
		if values := k.Strings(","); len(values) > 0 {
			return values
		}
	}
	return def
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

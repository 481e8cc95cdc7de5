// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database, the generation provider,
// rate limiting, and observability.
//
// The generation provider section may also come from a YAML file named by
// CONFIG_FILE; environment variables still win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects and tunes the persistence provider.
type DBConfig struct {
	Driver       string // DB_DRIVER: sqlite|postgres
	DSN          string // DB_DSN (postgres)
	Path         string // DB_PATH (sqlite file)
	TxMode       string // DB_TX_MODE: atomic|compensate
	MaxOpenConns int    // DB_MAX_OPEN_CONNS
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`    // LLM_PROVIDER: openai|static
	Model       string        `yaml:"model"`       // LLM_MODEL
	APIKey      string        `yaml:"-"`           // LLM_API_KEY (env only)
	BaseURL     string        `yaml:"base_url"`    // LLM_BASE_URL
	Temperature float64       `yaml:"temperature"` // LLM_TEMPERATURE in [0,2]
	Timeout     time.Duration `yaml:"timeout"`     // LLM_TIMEOUT
}

// LogFileConfig enables a rotating file sink next to stdout.
type LogFileConfig struct {
	Path       string // LOG_FILE (empty disables)
	MaxSizeMB  int    // LOG_MAX_SIZE_MB
	MaxBackups int    // LOG_MAX_BACKUPS
	MaxAgeDays int    // LOG_MAX_AGE_DAYS
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-offer-engine")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // must exceed LLM.Timeout
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string        // debug|info|warn|error|fatal|panic
	LogPretty      bool          // pretty console logs in dev
	LogFile        LogFileConfig // optional rotating file sink
	SwaggerEnabled bool          // enable Swagger UI route
	APIBasePath    string        // base path for API routes

	// App
	DB               DBConfig
	LLM              LLMConfig
	ResearchMaxRunes int    // research text budget per prompt; 0 disables condensing
	DefaultBrandID   string // brand used when X-Brand-ID is absent

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	file, err := loadFile(getenv("CONFIG_FILE", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogFile: LogFileConfig{
			Path:       getenv("LOG_FILE", ""),
			MaxSizeMB:  getint("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getint("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getint("LOG_MAX_AGE_DAYS", 28),
		},
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DB: DBConfig{
			Driver:       strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			DSN:          getenv("DB_DSN", ""),
			Path:         getenv("DB_PATH", "offers.db"),
			TxMode:       strings.ToLower(getenv("DB_TX_MODE", "atomic")),
			MaxOpenConns: getint("DB_MAX_OPEN_CONNS", 10),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getenv("LLM_PROVIDER", firstSet(file.LLM.Provider, "openai"))),
			Model:       getenv("LLM_MODEL", firstSet(file.LLM.Model, "gpt-4o-mini")),
			APIKey:      getenv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL:     getenv("LLM_BASE_URL", file.LLM.BaseURL),
			Temperature: getfloat("LLM_TEMPERATURE", firstFloat(file.LLM.Temperature, 0.7)),
			Timeout:     getdur("LLM_TIMEOUT", firstDur(file.LLM.Timeout, 90*time.Second)),
		},
		ResearchMaxRunes: getint("RESEARCH_MAX_RUNES", 6000),
		DefaultBrandID:   getenv("DEFAULT_BRAND_ID", "demo-brand"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-offer-engine"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DB_DSN must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.DB.TxMode != "atomic" && cfg.DB.TxMode != "compensate" {
		return cfg, errors.New("DB_TX_MODE must be one of: atomic, compensate")
	}
	if cfg.DB.MaxOpenConns < 1 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1")
	}
	switch cfg.LLM.Provider {
	case "static":
	case "openai":
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return cfg, errors.New("LLM_API_KEY must be set when LLM_PROVIDER=openai")
		}
		if strings.TrimSpace(cfg.LLM.Model) == "" {
			return cfg, errors.New("LLM_MODEL must not be empty")
		}
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: openai, static")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return cfg, errors.New("LLM_TEMPERATURE must be in [0,2]")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.ResearchMaxRunes < 0 {
		return cfg, errors.New("RESEARCH_MAX_RUNES must be >= 0")
	}
	if strings.TrimSpace(cfg.DefaultBrandID) == "" {
		return cfg, errors.New("DEFAULT_BRAND_ID must not be empty")
	}
	if cfg.LogFile.Path != "" && (cfg.LogFile.MaxSizeMB < 1 || cfg.LogFile.MaxBackups < 0 || cfg.LogFile.MaxAgeDays < 0) {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be >= 1 and LOG_MAX_BACKUPS/LOG_MAX_AGE_DAYS >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// fileConfig is the optional YAML overlay.
//
//	llm:
//	  provider: openai
//	  model: gpt-4o-mini
//	  base_url: https://gateway.example/v1/
//	  temperature: 0.5
//	  timeout: 60s
type fileConfig struct {
	LLM LLMConfig `yaml:"llm"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if strings.TrimSpace(path) == "" {
		return fc, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse CONFIG_FILE: %w", err)
	}
	return fc, nil
}

// ---- helpers ----

func firstSet(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func firstFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func firstDur(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr      = ":8080"
	DefaultMaxPayloadBytes = 1 << 20
	DefaultModelURL        = "https://generativelanguage.googleapis.com"
	DefaultModelName       = "gemini-2.5-flash"
	DefaultModelTimeout    = 120 * time.Second
	DefaultReportLanguage  = "Thai"
	DefaultHistoryTable    = "analysis_history"
	DefaultHistoryLimit    = 20
	DefaultHistoryTimeout  = 15 * time.Second

	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Env var lookup order mirrors the bundler-prefixed names first.
var (
	modelKeyEnv        = []string{"VITE_API_KEY", "API_KEY", "GEMINI_API_KEY"}
	supabaseURLEnv     = []string{"VITE_SUPABASE_URL", "SUPABASE_URL"}
	supabaseAnonKeyEnv = []string{"VITE_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"}
)

// ModelConfig for the generative model endpoint
type ModelConfig struct {
	URL            string        `yaml:"url" validate:"required,url"`
	Name           string        `yaml:"name" validate:"required"`
	APIKeyEnv      string        `yaml:"api_key_env"` // env var name for API key
	APIKey         string        `yaml:"-"`           // resolved at load time
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	ReportLanguage string        `yaml:"report_language"`
}

// HistoryConfig for the analysis history store
type HistoryConfig struct {
	Backend   string        `yaml:"backend" validate:"omitempty,oneof=supabase sqlite"`
	URL       string        `yaml:"url" validate:"omitempty,url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	APIKey    string        `yaml:"-"`
	Table     string        `yaml:"table" validate:"required"`
	DBPath    string        `yaml:"db_path"`
	Limit     int           `yaml:"limit" validate:"gte=0"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Enabled reports whether the configured backend has what it needs
func (h HistoryConfig) Enabled() bool {
	switch h.Backend {
	case BackendSQLite:
		return h.DBPath != ""
	case BackendSupabase, "":
		return h.URL != "" && h.APIKey != ""
	}
	return false
}

// Config for the dashboard server
type Config struct {
	ListenAddr      string        `yaml:"listen_addr" validate:"required"`
	MaxPayloadBytes int64         `yaml:"max_payload_bytes" validate:"gte=0"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
	Model           ModelConfig   `yaml:"model"`
	History         HistoryConfig `yaml:"history"`
}

// Features records which optional integrations have credentials. It is
// computed once at startup and handed to the components that branch on it.
type Features struct {
	Analysis bool
	History  bool
}

// Features derives the feature flags from the resolved credentials
func (c *Config) Features() Features {
	return Features{
		Analysis: c.Model.APIKey != "",
		History:  c.History.Enabled(),
	}
}

// Default returns a config with every default applied and no credentials
func Default() *Config {
	return &Config{
		ListenAddr:      DefaultListenAddr,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		Model: ModelConfig{
			URL:            DefaultModelURL,
			Name:           DefaultModelName,
			Timeout:        DefaultModelTimeout,
			ReportLanguage: DefaultReportLanguage,
		},
		History: HistoryConfig{
			Backend: BackendSupabase,
			Table:   DefaultHistoryTable,
			Limit:   DefaultHistoryLimit,
			Timeout: DefaultHistoryTimeout,
		},
	}
}

// Load reads the optional YAML file at path, then applies .env and
// environment overrides. An empty path means defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding the real environment
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("NETLOG_LISTEN_ADDR"); addr != "" {
		c.ListenAddr = addr
	}

	// Resolve model key: explicit env name first, then the well-known names
	if c.Model.APIKeyEnv != "" {
		c.Model.APIKey = os.Getenv(c.Model.APIKeyEnv)
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = firstEnv(modelKeyEnv)
	}

	if url := firstEnv(supabaseURLEnv); url != "" {
		c.History.URL = url
	}
	if c.History.APIKeyEnv != "" {
		c.History.APIKey = os.Getenv(c.History.APIKeyEnv)
	}
	if c.History.APIKey == "" {
		c.History.APIKey = firstEnv(supabaseAnonKeyEnv)
	}
	if dbPath := os.Getenv("NETLOG_DB_PATH"); dbPath != "" {
		c.History.Backend = BackendSQLite
		c.History.DBPath = dbPath
	}
}

func (c *Config) applyDefaults() {
	if c.History.Backend == "" {
		c.History.Backend = BackendSupabase
	}
	if c.History.Limit == 0 {
		c.History.Limit = DefaultHistoryLimit
	}
	if c.History.Table == "" {
		c.History.Table = DefaultHistoryTable
	}
	if c.Model.ReportLanguage == "" {
		c.Model.ReportLanguage = DefaultReportLanguage
	}
	c.History.URL = strings.TrimSuffix(strings.TrimSpace(c.History.URL), "/")
	c.Model.URL = strings.TrimSuffix(strings.TrimSpace(c.Model.URL), "/")
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

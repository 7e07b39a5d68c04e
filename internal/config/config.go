package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// DotEnvFile is loaded into the process environment before overrides are
// applied. Variables already set in the environment win.
var DotEnvFile = ".env"

// Config holds all recap configuration.
type Config struct {
	ListenAddr string `toml:"listen_addr" env:"RECAP_LISTEN_ADDR"`
	DataDir    string `toml:"data_dir" env:"RECAP_DATA_DIR"`
	Timezone   string `toml:"timezone" env:"RECAP_TIMEZONE"`

	Model       ModelConfig       `toml:"model"`
	Quota       QuotaConfig       `toml:"quota"`
	Input       InputConfig       `toml:"input"`
	Auth        AuthConfig        `toml:"auth"`
	Persistence PersistenceConfig `toml:"persistence"`
	Salvage     SalvageConfig     `toml:"salvage"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Log         LogConfig         `toml:"log"`
}

type ModelConfig struct {
	BaseURL        string  `toml:"base_url" env:"RECAP_MODEL_BASE_URL"`
	Model          string  `toml:"model" env:"RECAP_MODEL"`
	APIKeyEnv      string  `toml:"api_key_env" env:"RECAP_MODEL_API_KEY_ENV"`
	Temperature    float64 `toml:"temperature" env:"RECAP_MODEL_TEMPERATURE"`
	TimeoutSeconds int     `toml:"timeout_seconds" env:"RECAP_MODEL_TIMEOUT_SECONDS"`
	MaxRetries     int     `toml:"max_retries" env:"RECAP_MODEL_MAX_RETRIES"`
}

type QuotaConfig struct {
	DailyAllotment int `toml:"daily_allotment" env:"RECAP_QUOTA_DAILY_ALLOTMENT"`
}

type InputConfig struct {
	MinChars int `toml:"min_chars" env:"RECAP_INPUT_MIN_CHARS"`
}

type AuthConfig struct {
	Mode         string `toml:"mode" env:"RECAP_AUTH_MODE"` // "jwt" or "header"
	JWTSecretEnv string `toml:"jwt_secret_env" env:"RECAP_AUTH_JWT_SECRET_ENV"`
	UserHeader   string `toml:"user_header" env:"RECAP_AUTH_USER_HEADER"`
}

type PersistenceConfig struct {
	// Strict fails a generation when its recap cannot be stored.
	Strict bool `toml:"strict" env:"RECAP_PERSISTENCE_STRICT"`
}

type SalvageConfig struct {
	Repair bool `toml:"repair" env:"RECAP_SALVAGE_REPAIR"`
}

type DiagnosticsConfig struct {
	Enabled  bool `toml:"enabled" env:"RECAP_DIAGNOSTICS_ENABLED"`
	Compress bool `toml:"compress" env:"RECAP_DIAGNOSTICS_COMPRESS"`
}

type LogConfig struct {
	Level      string `toml:"level" env:"RECAP_LOG_LEVEL"`
	File       string `toml:"file" env:"RECAP_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"RECAP_LOG_MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"RECAP_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `toml:"max_age_days" env:"RECAP_LOG_MAX_AGE_DAYS"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":4000",
		DataDir:    "~/.local/share/recap",
		Timezone:   "Local",
		Model: ModelConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.1-8b-instant",
			APIKeyEnv:      "GROQ_API_KEY",
			Temperature:    0.1,
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Quota: QuotaConfig{
			DailyAllotment: 3,
		},
		Input: InputConfig{
			MinChars: 5,
		},
		Auth: AuthConfig{
			Mode:         "jwt",
			JWTSecretEnv: "RECAP_JWT_SECRET",
			UserHeader:   "X-User-ID",
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:  true,
			Compress: true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	return LoadFile(FindPath())
}

// LoadFile builds a Config from defaults, the TOML file at path (skipped when
// path is empty), the .env file and RECAP_* environment overrides, in that
// order of increasing precedence.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(DotEnvFile); err != nil {
		return cfg, err
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FindPath returns the first config file that exists, or "" if none does.
func FindPath() string {
	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "recap", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "recap", "config.toml"))
	}

	return paths
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.ListenAddr) == "" {
		result = multierror.Append(result, errors.New("listen_addr is empty"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		result = multierror.Append(result, errors.New("data_dir is empty"))
	}
	if _, err := c.Location(); err != nil {
		result = multierror.Append(result, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		result = multierror.Append(result, errors.New("model.base_url is empty"))
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		result = multierror.Append(result, errors.New("model.model is empty"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("model.temperature %.2f out of range [0, 2]", c.Model.Temperature))
	}
	if c.Model.TimeoutSeconds < 0 {
		result = multierror.Append(result, errors.New("model.timeout_seconds is negative"))
	}
	if c.Model.MaxRetries < 0 {
		result = multierror.Append(result, errors.New("model.max_retries is negative"))
	}
	if c.Quota.DailyAllotment <= 0 {
		result = multierror.Append(result, errors.New("quota.daily_allotment must be positive"))
	}
	if c.Input.MinChars < 0 {
		result = multierror.Append(result, errors.New("input.min_chars is negative"))
	}
	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.JWTSecretEnv == "" {
			result = multierror.Append(result, errors.New("auth.jwt_secret_env is empty"))
		}
	case "header":
		if c.Auth.UserHeader == "" {
			result = multierror.Append(result, errors.New("auth.user_header is empty"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("auth.mode %q: want jwt or header", c.Auth.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}

	return result.ErrorOrNil()
}

// Location resolves the timezone whose calendar day bounds the daily quota.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Timezone)
	}
}

// DBPath returns the SQLite database file inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "recap.db")
}

// DiagnosticsDir returns where raw output of failed generations is archived.
func (c Config) DiagnosticsDir() string {
	return filepath.Join(c.DataDir, "diagnostics")
}

// APIKey returns the model credential from the environment.
func (m ModelConfig) APIKey() string {
	return os.Getenv(m.APIKeyEnv)
}

// Timeout returns the per-attempt model call timeout.
func (m ModelConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// JWTSecret returns the token signing secret from the environment.
func (a AuthConfig) JWTSecret() string {
	return os.Getenv(a.JWTSecretEnv)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// ConfigPathEnvVar overrides where the YAML config file is read from.
const ConfigPathEnvVar = "KIDSREC_CONFIG"

// DefaultConfigPaths are tried in order when KIDSREC_CONFIG is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Mode    Mode          `koanf:"mode" validate:"oneof=local gcp"`
	HTTP    HTTPConfig    `koanf:"http"`
	Log     LogConfig     `koanf:"log"`
	LLM     LLMConfig     `koanf:"llm"`
	GCP     GCPConfig     `koanf:"gcp"`
	Storage StorageConfig `koanf:"storage"`
	Catalog CatalogConfig `koanf:"catalog"`
}

type HTTPConfig struct {
	Port               string   `koanf:"port" validate:"required,numeric"`
	CORSOrigins        []string `koanf:"cors_origins"`
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute" validate:"gte=0"` // 0 disables
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type LLMConfig struct {
	Provider    string        `koanf:"provider" validate:"oneof=openai vertex mock"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url" validate:"omitempty,url"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout" validate:"gte=0"`
	Temperature float32       `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `koanf:"max_tokens" validate:"gt=0"`
	Breaker     BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type GCPConfig struct {
	Project  string `koanf:"project"`
	Location string `koanf:"location"`
}

type StorageConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=memory firestore badger"`
	BadgerPath string `koanf:"badger_path"`
}

type CatalogConfig struct {
	SeedPath string `koanf:"seed_path"`
}

func defaultConfig() *Config {
	return &Config{
		Mode: ModeLocal,
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			Provider:    "mock",
			Model:       "",
			Timeout:     60 * time.Second,
			Temperature: 0.7,
			MaxTokens:   500,
			Breaker: BreakerConfig{
				Enabled:          false,
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
			},
		},
		GCP: GCPConfig{
			Location: "us-central1",
		},
		Storage: StorageConfig{
			Backend:    "memory",
			BadgerPath: "data/badger",
		},
	}
}

// Load builds the config from defaults, then an optional YAML file, then
// KIDSREC_* environment variables, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("KIDSREC_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "http.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps lowercased variable names, without the KIDSREC_ prefix,
// onto config paths.
var envMappings = map[string]string{
	"mode":                     "mode",
	"port":                     "http.port",
	"http_port":                "http.port",
	"cors_origins":             "http.cors_origins",
	"rate_limit_per_minute":    "http.rate_limit_per_minute",
	"log_level":                "log.level",
	"log_format":               "log.format",
	"llm_provider":             "llm.provider",
	"llm_api_key":              "llm.api_key",
	"openai_api_key":           "llm.api_key",
	"llm_base_url":             "llm.base_url",
	"llm_model":                "llm.model",
	"llm_timeout":              "llm.timeout",
	"llm_temperature":          "llm.temperature",
	"llm_max_tokens":           "llm.max_tokens",
	"llm_breaker_enabled":      "llm.breaker.enabled",
	"llm_breaker_failures":     "llm.breaker.failure_threshold",
	"llm_breaker_open_timeout": "llm.breaker.open_timeout",
	"gcp_project":              "gcp.project",
	"gcp_location":             "gcp.location",
	"storage_backend":          "storage.backend",
	"badger_path":              "storage.badger_path",
	"catalog_seed_path":        "catalog.seed_path",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "KIDSREC_"))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// splitList turns a comma separated string value at path into a []string.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field rules and the cross-field requirements of the chosen
// providers.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("KIDSREC_LLM_API_KEY must be set when llm.provider is openai"))
	}
	if (c.LLM.Provider == "vertex" || c.Storage.Backend == "firestore") && c.GCP.Project == "" {
		errs = append(errs, errors.New("KIDSREC_GCP_PROJECT must be set for vertex or firestore"))
	}
	if c.Mode == ModeGCP && c.GCP.Project == "" {
		errs = append(errs, errors.New("KIDSREC_GCP_PROJECT must be set in gcp mode"))
	}
	if c.Storage.Backend == "badger" && c.Storage.BadgerPath == "" {
		errs = append(errs, errors.New("storage.badger_path must be set for the badger backend"))
	}
	return errors.Join(errs...)
}

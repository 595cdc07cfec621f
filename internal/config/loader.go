package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/koconnect/koconnect/internal/domain"
)

const (
	DefaultChatModel      = "gpt-5-mini"
	DefaultVisionModel    = "gpt-5-mini"
	DefaultTemperature    = 0.7
	DefaultMaxInputTokens = 4000
	DefaultRedisTTL       = 24 * time.Hour
)

// DefaultAdditionalLanguages are supported next to Korean unless overridden.
var DefaultAdditionalLanguages = []string{"English", "Japanese", "Chinese", "Vietnamese"}

// envBindings maps config keys to the environment variables the deployment
// already uses.
var envBindings = map[string]string{
	"openai.api_key":      "OPENAI_API_KEY",
	"openai.base_url":     "OPENAI_BASE_URL",
	"openai.chat_model":   "OPENAI_CHAT_MODEL",
	"openai.vision_model": "OPENAI_VISION_MODEL",
	"app.environment":     "ENVIRONMENT",
	"redis.address":       "REDIS_ADDRESS",
	"redis.password":      "REDIS_PASSWORD",
	"logging.level":       "LOG_LEVEL",
	"logging.format":      "LOG_FORMAT",
}

// Load reads .env (best effort), an optional config.yaml and the environment.
func Load() (*Config, error) {
	loadEnvFile()
	return LoadFrom(viper.New(), "./configs", ".")
}

// LoadFrom loads configuration into v using the given search paths.
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg, v)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
	if root := findProjectRoot(); root != "" {
		_ = godotenv.Load(filepath.Join(root, ".env"))
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config, v *viper.Viper) {
	if cfg.App.Name == "" {
		cfg.App.Name = "koconnect"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "dev"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = DefaultChatModel
	}
	if cfg.OpenAI.VisionModel == "" {
		cfg.OpenAI.VisionModel = DefaultVisionModel
	}
	// 0 is a legal temperature, so only default when the key is absent.
	if !v.IsSet("openai.temperature") {
		cfg.OpenAI.Temperature = DefaultTemperature
	}
	if len(cfg.Languages.Additional) == 0 {
		cfg.Languages.Additional = append([]string(nil), DefaultAdditionalLanguages...)
	}
	if cfg.Limits.MaxInputTokens == 0 {
		cfg.Limits.MaxInputTokens = DefaultMaxInputTokens
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be within [0, 2], got %v", cfg.OpenAI.Temperature)
	}
	if cfg.OpenAI.Timeout < 0 {
		return fmt.Errorf("openai.timeout must not be negative")
	}
	if cfg.Limits.MaxInputTokens < 0 {
		return fmt.Errorf("limits.max_input_tokens must not be negative")
	}
	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}
	known := make(map[string]bool, len(domain.KnownLanguages))
	for _, l := range domain.KnownLanguages {
		known[strings.ToLower(string(l))] = true
	}
	seen := map[string]bool{"korean": true}
	for _, lang := range cfg.Languages.Additional {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" {
			return fmt.Errorf("languages.additional contains an empty entry")
		}
		if !known[key] {
			return fmt.Errorf("languages.additional lists unknown language %q", lang)
		}
		if seen[key] {
			return fmt.Errorf("languages.additional lists %q more than once (Korean is always supported)", lang)
		}
		seen[key] = true
	}
	return nil
}

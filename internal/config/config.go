// Package config loads Ko-Connect configuration from config files, .env and
// the environment.
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Languages LanguagesConfig `mapstructure:"languages"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// OpenAIConfig configures the completion and vision backends. An empty
// APIKey is allowed at load time; calls fail with a configuration error.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ChatModel   string        `mapstructure:"chat_model"`
	VisionModel string        `mapstructure:"vision_model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"` // 0 means no client-side timeout
}

// LanguagesConfig lists the languages supported next to Korean.
type LanguagesConfig struct {
	Additional []string `mapstructure:"additional"`
}

type LimitsConfig struct {
	MaxInputTokens int `mapstructure:"max_input_tokens"`
}

// RedisConfig enables session snapshots when Address is set.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

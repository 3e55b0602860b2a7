// Package config provides application settings loaded from config.json and
// environment variables.
//
// Settings are created via Load() which handles:
// - Optional config.json discovery (or an explicit path)
// - Environment variable overrides and default value application
// - Validation of port, history backend, and retry policy

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ModelConfig holds the per-provider model inventory.
type ModelConfig struct {
	Available []string `mapstructure:"available"`
	Default   string   `mapstructure:"default"`
}

// Config holds all application configuration. Field keys match the
// config.json wire names.
type Config struct {
	// API configuration
	OllamaURL    string `mapstructure:"ollama_url"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ClaudeAPIKey string `mapstructure:"claude_api_key"`

	// Server configuration
	MCPHost     string `mapstructure:"mcp_host"`
	MCPPort     int    `mapstructure:"mcp_port"`
	AllowRemote bool   `mapstructure:"allow_remote"`

	// Model routing
	DefaultModel    string                 `mapstructure:"default_model"`
	DefaultProvider string                 `mapstructure:"default_provider"`
	FallbackChain   []string               `mapstructure:"fallback_chain"`
	Models          map[string]ModelConfig `mapstructure:"models"`

	// System prompt override; empty means the embedded default.
	PromptPath string `mapstructure:"prompt_path"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Conversation history
	CacheEnabled bool   `mapstructure:"cache_enabled"`
	CacheType    string `mapstructure:"cache_type"`
	CachePath    string `mapstructure:"cache_path"`
	RedisURL     string `mapstructure:"redis_url"`

	// Timeouts and retries
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelaySeconds float64 `mapstructure:"retry_delay"`
}

// Load reads settings from the given config file path, or from ./config.json
// when path is empty. A missing ./config.json is not an error; an explicit
// path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("FUSIONMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads settings and panics on error.
// Use this only when configuration errors should be fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// bindEnvAliases binds the conventional unprefixed variables so they take
// effect alongside the FUSIONMCP_ prefixed ones. First set variable wins.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("ollama_url", "FUSIONMCP_OLLAMA_URL", "OLLAMA_URL")
	_ = v.BindEnv("openai_api_key", "FUSIONMCP_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "FUSIONMCP_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("claude_api_key", "FUSIONMCP_CLAUDE_API_KEY", "CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("mcp_host", "FUSIONMCP_MCP_HOST", "MCP_HOST")
	_ = v.BindEnv("mcp_port", "FUSIONMCP_MCP_PORT", "MCP_PORT")
	_ = v.BindEnv("log_level", "FUSIONMCP_LOG_LEVEL", "LOG_LEVEL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama_url", "http://localhost:11434")

	v.SetDefault("mcp_host", "127.0.0.1")
	v.SetDefault("mcp_port", 9000)
	v.SetDefault("allow_remote", false)

	v.SetDefault("default_model", "openai:gpt-4o-mini")
	v.SetDefault("default_provider", "openai")
	v.SetDefault("fallback_chain", []string{})

	v.SetDefault("prompt_path", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_type", "json")
	v.SetDefault("cache_path", "context_cache.json")
	v.SetDefault("redis_url", "redis://localhost:6379/0")

	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", 1.0)
}

// Supported history backends.
var cacheTypes = map[string]bool{
	"json":   true,
	"sqlite": true,
	"redis":  true,
}

// Validate checks the loaded settings for values no component can work with.
func (c *Config) Validate() error {
	if c.MCPPort < 1 || c.MCPPort > 65535 {
		return fmt.Errorf("invalid mcp_port: %d", c.MCPPort)
	}
	if !cacheTypes[c.CacheType] {
		return fmt.Errorf("unknown cache_type: %q", c.CacheType)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", c.TimeoutSeconds)
	}
	if c.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %v", c.RetryDelaySeconds)
	}
	return nil
}

// Timeout returns the per-generation-attempt timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between generation attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// Addr returns the host:port the HTTP server binds.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.MCPHost, c.MCPPort)
}

// DefaultModelFor returns the configured default model for a provider.
func (c *Config) DefaultModelFor(provider string) (string, bool) {
	mc, ok := c.Models[provider]
	if !ok || mc.Default == "" {
		return "", false
	}
	return mc.Default, true
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.OllamaURL)
	}
	if cfg.MCPHost != "127.0.0.1" || cfg.MCPPort != 9000 {
		t.Errorf("expected 127.0.0.1:9000, got %s", cfg.Addr())
	}
	if cfg.AllowRemote {
		t.Error("allow_remote should default to false")
	}
	if cfg.DefaultModel != "openai:gpt-4o-mini" {
		t.Errorf("unexpected default model %q", cfg.DefaultModel)
	}
	if cfg.DefaultProvider != "openai" {
		t.Errorf("unexpected default provider %q", cfg.DefaultProvider)
	}
	if len(cfg.FallbackChain) != 0 {
		t.Errorf("fallback chain should default empty, got %v", cfg.FallbackChain)
	}
	if cfg.CacheType != "json" || !cfg.CacheEnabled {
		t.Errorf("expected enabled json cache, got %q enabled=%v", cfg.CacheType, cfg.CacheEnabled)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout())
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay() != time.Second {
		t.Errorf("expected 1s retry delay, got %v", cfg.RetryDelay())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"mcp_port": 9100,
		"default_model": "claude:claude-sonnet-4-0",
		"fallback_chain": ["ollama:llama3.2", "gemini:gemini-2.5-flash"],
		"timeout_seconds": 5,
		"retry_delay": 0.5
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MCPPort != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.MCPPort)
	}
	if cfg.DefaultModel != "claude:claude-sonnet-4-0" {
		t.Errorf("unexpected default model %q", cfg.DefaultModel)
	}
	if len(cfg.FallbackChain) != 2 || cfg.FallbackChain[0] != "ollama:llama3.2" {
		t.Errorf("unexpected fallback chain %v", cfg.FallbackChain)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout())
	}
	if cfg.RetryDelay() != 500*time.Millisecond {
		t.Errorf("expected 500ms retry delay, got %v", cfg.RetryDelay())
	}
	// Untouched keys keep their defaults
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.OllamaURL)
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"mcp_port": 9100}`)
	t.Setenv("MCP_PORT", "9200")
	t.Setenv("FUSIONMCP_MAX_RETRIES", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MCPPort != 9200 {
		t.Errorf("env should override file, got port %d", cfg.MCPPort)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("expected 5 retries from env, got %d", cfg.MaxRetries)
	}
}

func TestClaudeKeyEnvAliases(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "from-anthropic-var")

	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClaudeAPIKey != "from-anthropic-var" {
		t.Errorf("expected ANTHROPIC_API_KEY fallback, got %q", cfg.ClaudeAPIKey)
	}

	t.Setenv("CLAUDE_API_KEY", "from-claude-var")
	cfg, err = Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClaudeAPIKey != "from-claude-var" {
		t.Errorf("CLAUDE_API_KEY should win over ANTHROPIC_API_KEY, got %q", cfg.ClaudeAPIKey)
	}
}

func TestValidateUnknownCacheType(t *testing.T) {
	_, err := Load(writeConfig(t, `{"cache_type": "memcache"}`))
	if err == nil {
		t.Error("expected error for unknown cache_type")
	}
}

func TestValidateBadPort(t *testing.T) {
	_, err := Load(writeConfig(t, `{"mcp_port": 70000}`))
	if err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidateBadRetries(t *testing.T) {
	_, err := Load(writeConfig(t, `{"max_retries": 0}`))
	if err == nil {
		t.Error("expected error for zero max_retries")
	}
}

func TestMustLoadPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unreadable config")
		}
	}()
	MustLoad(filepath.Join(t.TempDir(), "nope.json"))
}

func TestDefaultModelFor(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"models": {
			"ollama": {"available": ["llama3.2", "mistral"], "default": "llama3.2"}
		}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, ok := cfg.DefaultModelFor("ollama")
	if !ok || model != "llama3.2" {
		t.Errorf("expected llama3.2, got %q (ok=%v)", model, ok)
	}
	if _, ok := cfg.DefaultModelFor("claude"); ok {
		t.Error("expected no default for unconfigured provider")
	}
}

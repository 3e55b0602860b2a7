// Package prompts carries the system prompt handed to providers.
package prompts

import (
	_ "embed"
	"log/slog"
	"os"
)

//go:embed system_prompt.md
var defaultPrompt string

// Load returns the system prompt text. A non-empty path overrides the
// embedded default; an unreadable override falls back with a warning.
func Load(path string) string {
	if path == "" {
		return defaultPrompt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("system prompt not readable, using embedded default", "path", path, "error", err)
		return defaultPrompt
	}
	return string(data)
}

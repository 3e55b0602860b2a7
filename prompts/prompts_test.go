package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	got := Load("")
	if !strings.HasPrefix(got, "You are FusionMCP, a parametric CAD design assistant.") {
		t.Errorf("unexpected default prompt start: %q", got[:min(len(got), 60)])
	}
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.md")
	if err := os.WriteFile(path, []byte("custom instructions"), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	if got := Load(path); got != "custom instructions" {
		t.Errorf("expected override content, got %q", got)
	}
}

func TestLoadMissingOverrideFallsBack(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "missing.md"))
	if !strings.Contains(got, "FusionMCP") {
		t.Error("expected embedded default on unreadable override")
	}
}

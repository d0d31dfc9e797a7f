package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/perch-hq/agentic-context-engine/internal/config"
	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/workspace"
)

func TestSeedContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	resolver := workspace.NewDirResolver(dir)

	items, err := seedContext(context.Background(), resolver, []string{"a.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != domain.SourceUser {
		t.Errorf("seeded files must be user-sourced, got %s", items[0].Source)
	}

	if _, err := seedContext(context.Background(), resolver, []string{"missing.go"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildToolsUnknownName(t *testing.T) {
	resolved := config.Defaults
	resolved.Tools = []string{"browser"}

	if _, err := buildTools(resolved, workspace.NewDirResolver(t.TempDir()), nil); err == nil {
		t.Error("expected error for unknown tool name")
	}
}

func TestBuildToolsRegistrationOrder(t *testing.T) {
	resolved := config.Defaults
	resolved.Tools = []string{"file", "search", "shell"}
	resolved.Workspace = t.TempDir()

	tools, err := buildTools(resolved, workspace.NewDirResolver(resolved.Workspace), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags := []string{"TOOLFILE", "TOOLSEARCH", "TOOLSHELL"}
	if len(tools) != len(tags) {
		t.Fatalf("expected %d tools, got %d", len(tags), len(tools))
	}
	for i, want := range tags {
		if tools[i].Tag() != want {
			t.Errorf("tool %d: expected %s, got %s", i, want, tools[i].Tag())
		}
	}
}

func TestBuildVersionString(t *testing.T) {
	if buildVersionString() == "" {
		t.Error("version string must not be empty")
	}
}

func TestBuildLoggerBadLevelFallsBack(t *testing.T) {
	if buildLogger("chatty") == nil {
		t.Error("expected usable logger for unknown level")
	}
}

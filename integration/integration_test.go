// Package integration provides end-to-end tests for the ace binary.
//
// These tests build the real binary and exercise the commands that run
// without a model backend: diff rendering, version output, and the error
// paths of retrieve (missing API key, missing files).
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles ace into a temp dir and returns its path.
func buildBinary(t *testing.T) string {
	t.Helper()

	rootDir := findRepoRoot(t)
	bin := filepath.Join(t.TempDir(), "ace")
	build := exec.Command("go", "build", "-o", bin, "./cmd/ace")
	build.Dir = rootDir
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build ace: %v\n%s", err, out)
	}
	return bin
}

// findRepoRoot walks up from the working directory to the go.mod root.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above working directory")
		}
		dir = parent
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiffCommand(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	oldFile := writeFile(t, dir, "old.txt", "keep\nold line\n")
	newFile := writeFile(t, dir, "new.txt", "keep\nnew line\nadded\n")

	cmd := exec.Command(bin, "--no-color", "diff", oldFile, newFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("diff failed: %v\n%s", err, out)
	}

	output := string(out)
	if !strings.Contains(output, "  keep") {
		t.Errorf("expected unchanged marker in output:\n%s", output)
	}
	if !strings.Contains(output, "+ added") {
		t.Errorf("expected added marker in output:\n%s", output)
	}
	if !strings.Contains(output, "lines,") {
		t.Errorf("expected stats summary in output:\n%s", output)
	}
}

func TestDiffCommandStatsOnly(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	oldFile := writeFile(t, dir, "old.txt", "a\n")
	newFile := writeFile(t, dir, "new.txt", "a\nb\n")

	cmd := exec.Command(bin, "--no-color", "diff", "--stats", oldFile, newFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("diff --stats failed: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 1 {
		t.Errorf("expected single summary line, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "+1 ") {
		t.Errorf("expected one added line in summary, got %q", lines[0])
	}
}

func TestDiffCommandMissingFile(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "diff", "/nonexistent/a", "/nonexistent/b")
	if err := cmd.Run(); err == nil {
		t.Error("expected non-zero exit for missing input")
	}
	if cmd.ProcessState.ExitCode() != 2 {
		t.Errorf("expected exit code 2, got %d", cmd.ProcessState.ExitCode())
	}
}

func TestVersionFlag(t *testing.T) {
	bin := buildBinary(t)

	out, err := exec.Command(bin, "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("--version failed: %v\n%s", err, out)
	}
	if strings.TrimSpace(string(out)) == "" {
		t.Error("expected version output")
	}
}

func TestRetrieveRequiresAPIKey(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "retrieve", "what does this do?")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "ACE_OPENAI_API_KEY=", "OPENAI_API_KEY=")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure without API key, got:\n%s", out)
	}
	if !strings.Contains(string(out), "API key") {
		t.Errorf("expected API key error, got:\n%s", out)
	}
}

func TestRetrieveMissingSeedFile(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "retrieve", "question", "missing.go")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "ACE_OPENAI_API_KEY=test-key")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for missing seed file, got:\n%s", out)
	}
	if !strings.Contains(string(out), "missing.go") {
		t.Errorf("expected the missing file named in the error, got:\n%s", out)
	}
}

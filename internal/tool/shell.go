package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/process"
)

const shellMaxOutputBytes = 64 * 1024

// ShellTool runs one allow-listed command per review turn and returns its
// output as a tool-output item. Shell invocations can mutate shared state,
// so the tool declares itself sequential.
type ShellTool struct {
	workDir string
	allowed []string
	buf     Buffer
}

// NewShellTool creates a shell tool confined to workDir. Only commands whose
// argv[0] appears in allowed may run.
func NewShellTool(workDir string, allowed []string) *ShellTool {
	return &ShellTool{workDir: workDir, allowed: allowed}
}

func (t *ShellTool) Tag() string { return "TOOLSHELL" }

func (t *ShellTool) Instruction() string {
	return fmt.Sprintf("To run a read-only shell command, put it inside "+
		"<TOOLSHELL></TOOLSHELL>. Allowed commands: %s.", strings.Join(t.allowed, ", "))
}

func (t *ShellTool) Stream(text string) { t.buf.Append(text) }

func (t *ShellTool) Sequential() bool { return true }

// Run executes the first buffered command line.
func (t *ShellTool) Run(ctx context.Context, _ *process.Manager) ([]domain.ContextItem, error) {
	command := firstLine(t.buf.Consume())
	if command == "" {
		return nil, nil
	}

	argv := strings.Fields(command)
	if !slices.Contains(t.allowed, argv[0]) {
		return nil, fmt.Errorf("command %q is not allowed", argv[0])
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = t.workDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	output := out.String()
	if len(output) > shellMaxOutputBytes {
		output = output[:shellMaxOutputBytes] + "\n... (truncated)"
	}
	if runErr != nil {
		return nil, fmt.Errorf("%s: %w\n%s", command, runErr, output)
	}

	return []domain.ContextItem{{
		Kind:    domain.KindToolOutput,
		URI:     "terminal://" + argv[0],
		Content: output,
		Source:  domain.SourceTool,
		Title:   command,
		Size:    domain.TokenEstimate(output),
	}}, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

package tool

import (
	"context"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/process"
	"github.com/perch-hq/agentic-context-engine/internal/workspace"
)

// FileTool reads workspace files the model names, one path per line.
type FileTool struct {
	resolver workspace.Resolver
	buf      Buffer
}

// NewFileTool creates a file-reading tool backed by the given resolver.
func NewFileTool(resolver workspace.Resolver) *FileTool {
	return &FileTool{resolver: resolver}
}

func (t *FileTool) Tag() string { return "TOOLFILE" }

func (t *FileTool) Instruction() string {
	return "To retrieve full file contents, list workspace-relative file paths " +
		"inside <TOOLFILE></TOOLFILE>, one path per line."
}

func (t *FileTool) Stream(text string) { t.buf.Append(text) }

func (t *FileTool) Sequential() bool { return false }

// Run resolves each buffered path to a context item. Paths that fail to
// resolve are skipped; the tool only errors when nothing was requested.
func (t *FileTool) Run(ctx context.Context, _ *process.Manager) ([]domain.ContextItem, error) {
	input := strings.TrimSpace(t.buf.Consume())
	if input == "" {
		return nil, nil
	}

	var items []domain.ContextItem
	for _, line := range strings.Split(input, "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		item, err := t.resolver.Resolve(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			continue
		}
		if item == nil {
			continue
		}
		items = append(items, item.WithSource(domain.SourceTool))
	}
	return items, nil
}

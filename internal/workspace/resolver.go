// Package workspace resolves workspace-relative paths to context items.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
)

// DefaultMaxFileBytes caps how much file content a resolved item may carry.
// Larger files are still resolved but flagged too-large with no content.
const DefaultMaxFileBytes = 1 << 20

// Resolver turns a workspace-relative path into a fully hydrated context
// item. Implementations return (nil, nil) when the path does not resolve.
type Resolver interface {
	Resolve(ctx context.Context, relPath string) (*domain.ContextItem, error)
}

// DirResolver resolves paths against a root directory on disk.
type DirResolver struct {
	root     string
	maxBytes int
}

// NewDirResolver creates a resolver rooted at dir.
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{root: dir, maxBytes: DefaultMaxFileBytes}
}

// Root returns the resolver's root directory.
func (r *DirResolver) Root() string { return r.root }

// Resolve reads the file at relPath under the root. Paths escaping the root
// are rejected; missing files resolve to (nil, nil).
func (r *DirResolver) Resolve(ctx context.Context, relPath string) (*domain.ContextItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(r.root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(r.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q escapes workspace root", relPath)
	}

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if fi.IsDir() {
		return &domain.ContextItem{
			Kind:   domain.KindDirectory,
			URI:    filepath.ToSlash(rel),
			Source: domain.SourceAgentic,
			Title:  filepath.Base(rel),
		}, nil
	}

	item := domain.ContextItem{
		Kind:   domain.KindFile,
		URI:    filepath.ToSlash(rel),
		Source: domain.SourceAgentic,
		Title:  filepath.Base(rel),
	}

	if fi.Size() > int64(r.maxBytes) {
		item.IsTooLarge = true
		item.Size = int(fi.Size() / 4)
		return &item, nil
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	item.Content = string(content)
	item.Size = domain.TokenEstimate(item.Content)
	return &item, nil
}

package tool

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/process"
)

const (
	searchMaxResults   = 20
	searchMaxFileBytes = 1 << 20
)

// SearchTool scans workspace files for a literal query and returns the
// matching locations as context items.
type SearchTool struct {
	root string
	buf  Buffer
}

// NewSearchTool creates a search tool rooted at dir.
func NewSearchTool(dir string) *SearchTool {
	return &SearchTool{root: dir}
}

func (t *SearchTool) Tag() string { return "TOOLSEARCH" }

func (t *SearchTool) Instruction() string {
	return "To find code by keyword, put a short search query inside " +
		"<TOOLSEARCH></TOOLSEARCH>. Matching is case-insensitive and literal."
}

func (t *SearchTool) Stream(text string) { t.buf.Append(text) }

func (t *SearchTool) Sequential() bool { return false }

// Run scans the workspace for the buffered query. Hidden directories and
// oversized or binary files are skipped.
func (t *SearchTool) Run(ctx context.Context, _ *process.Manager) ([]domain.ContextItem, error) {
	query := strings.ToLower(strings.TrimSpace(t.buf.Consume()))
	if query == "" {
		return nil, nil
	}

	var items []domain.ContextItem
	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if len(items) >= searchMaxResults {
			return filepath.SkipAll
		}

		fi, err := d.Info()
		if err != nil || fi.Size() > searchMaxFileBytes {
			return nil
		}

		matches, scanErr := scanFile(path, query)
		if scanErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(t.root, path)
		if relErr != nil {
			return nil
		}
		for _, m := range matches {
			if len(items) >= searchMaxResults {
				break
			}
			items = append(items, domain.ContextItem{
				Kind:    domain.KindFile,
				URI:     filepath.ToSlash(rel),
				Range:   &domain.LineRange{Start: m.line, End: m.line + 1},
				Content: m.text,
				Source:  domain.SourceSearch,
				Title:   filepath.Base(rel),
				Size:    domain.TokenEstimate(m.text),
			})
		}
		return nil
	})
	if err != nil {
		return items, err
	}
	return items, nil
}

type match struct {
	line int
	text string
}

// scanFile returns the lines of path containing query. Binary content
// (anything with a NUL in the first chunk) is skipped outright.
func scanFile(path, query string) ([]match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head, _ := r.Peek(512)
	if strings.ContainsRune(string(head), 0) {
		return nil, nil
	}

	var matches []match
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 1
	for scanner.Scan() {
		text := scanner.Text()
		if strings.Contains(strings.ToLower(text), query) {
			matches = append(matches, match{line: lineNo, text: text})
		}
		lineNo++
	}
	return matches, scanner.Err()
}

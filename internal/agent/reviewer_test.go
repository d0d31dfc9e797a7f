package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/llm"
	"github.com/perch-hq/agentic-context-engine/internal/process"
	"github.com/perch-hq/agentic-context-engine/internal/tool"
)

// stubTool returns canned items (or a canned error) and records activity.
type stubTool struct {
	tag        string
	sequential bool
	err        error

	// yield produces the items for one invocation; defaults to none.
	yield func(run int) []domain.ContextItem

	mu       sync.Mutex
	streamed string
	runs     int
}

func (s *stubTool) Tag() string         { return s.tag }
func (s *stubTool) Instruction() string { return "stub" }
func (s *stubTool) Sequential() bool    { return s.sequential }

func (s *stubTool) Stream(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamed += text
}

func (s *stubTool) Run(context.Context, *process.Manager) ([]domain.ContextItem, error) {
	s.mu.Lock()
	run := s.runs
	s.runs++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.yield == nil {
		return nil, nil
	}
	return s.yield(run), nil
}

func (s *stubTool) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func yieldOne(tag string) func(int) []domain.ContextItem {
	return func(run int) []domain.ContextItem {
		return []domain.ContextItem{{
			URI:     fmt.Sprintf("%s/result-%d.go", tag, run),
			Content: "package main",
			Source:  domain.SourceTool,
		}}
	}
}

func newTestReviewer(chat llm.Streamer, tools []tool.Tool, cfg Config) (*Reviewer, *process.Manager) {
	steps := process.NewManager(nil, nil)
	return NewReviewer(chat, tools, steps, nil, cfg, nil), steps
}

func TestReviewerStopsOnReadySentinel(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: yieldOne("file")}
	r, _ := newTestReviewer(llm.NewMockStreamer(ReadySentinel), []tool.Tool{file}, Config{MaxLoops: 5})

	initial := []domain.ContextItem{{URI: "a.go", Source: domain.SourceUser}}
	got := r.RetrieveContext(context.Background(), "", "what does a.go do?", initial)

	assert.Equal(t, initial, got)
	assert.Equal(t, 0, file.runCount(), "no tool runs after the ready sentinel")
	assert.Equal(t, 1, r.Stats().LoopsRun)
}

func TestReviewerStopsWhenToolsYieldNothing(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE"} // yields nothing
	chat := llm.NewMockStreamer("<TOOLFILE>missing.go</TOOLFILE>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 5})

	got := r.RetrieveContext(context.Background(), "", "q", nil)

	assert.Empty(t, got)
	assert.Equal(t, 1, r.Stats().LoopsRun, "an empty yield ends the loop after one iteration")
	assert.Equal(t, 1, file.runCount())
}

func TestReviewerLoopCap(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: yieldOne("file")}
	chat := llm.NewMockStreamer("<TOOLFILE>more.go</TOOLFILE>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 3})

	initial := []domain.ContextItem{{URI: "seed.go", Source: domain.SourceInitial}}
	got := r.RetrieveContext(context.Background(), "", "q", initial)

	assert.Equal(t, 3, r.Stats().LoopsRun)
	assert.Equal(t, 3, file.runCount())
	assert.Len(t, got, len(initial)+3, "each capped iteration contributes its one item")
}

func TestReviewerFiltersRawToolSpans(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: func(int) []domain.ContextItem {
		return []domain.ContextItem{
			{URI: "keep.go", Source: domain.SourceTool},
			{URI: "span://raw", Title: "TOOLCONTEXT", Source: domain.SourceTool},
		}
	}}
	chat := llm.NewMockStreamer("<TOOLFILE>keep.go</TOOLFILE>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 1})

	got := r.RetrieveContext(context.Background(), "", "q", nil)

	require.Len(t, got, 1)
	assert.Equal(t, "keep.go", got[0].URI)
}

func TestReviewerStopsWhenAllNewItemsAreUserAdded(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: func(int) []domain.ContextItem {
		return []domain.ContextItem{{URI: "a.go", Source: domain.SourceUser}}
	}}
	chat := llm.NewMockStreamer("<TOOLFILE>a.go</TOOLFILE>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 5})

	initial := []domain.ContextItem{{URI: "a.go", Source: domain.SourceUser}}
	got := r.RetrieveContext(context.Background(), "", "q", initial)

	assert.Equal(t, initial, got, "re-retrieving only user-pinned items adds nothing")
	assert.Equal(t, 1, r.Stats().LoopsRun)
}

func TestReviewerReflectionKeepsUserItems(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: yieldOne("file")}
	// The model deems only b.go relevant; a.go is user-added and must
	// survive the rebuild regardless.
	chat := llm.NewMockStreamer("<TOOLFILE>next.go</TOOLFILE><context>b.go</context>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 1})

	initial := []domain.ContextItem{
		{URI: "src/a.go", Source: domain.SourceUser},
		{URI: "src/b.go", Source: domain.SourceSearch},
		{URI: "src/c.go", Source: domain.SourceSearch},
	}
	got := r.RetrieveContext(context.Background(), "", "q", initial)

	require.Len(t, got, 3, "reflected b.go, user a.go, one new tool item")
	assert.Equal(t, "src/b.go", got[0].URI)
	assert.Equal(t, domain.SourceAgentic, got[0].Source, "reflected items are re-sourced")
	assert.Equal(t, "src/a.go", got[1].URI)
	assert.Equal(t, domain.SourceUser, got[1].Source)
	assert.Equal(t, "file/result-0.go", got[2].URI)

	for _, item := range got {
		assert.NotEqual(t, "src/c.go", item.URI, "unmentioned non-user items are dropped")
	}
}

func TestReviewerToolFailureIsIsolated(t *testing.T) {
	okA := &stubTool{tag: "TOOLA", yield: yieldOne("a")}
	bad := &stubTool{tag: "TOOLB", err: errors.New("backend down")}
	okC := &stubTool{tag: "TOOLC", yield: yieldOne("c")}
	chat := llm.NewMockStreamer("<TOOLA>x</TOOLA><TOOLB>y</TOOLB><TOOLC>z</TOOLC>")
	r, steps := newTestReviewer(chat, []tool.Tool{okA, bad, okC}, Config{MaxLoops: 1})

	got := r.RetrieveContext(context.Background(), "", "q", nil)

	uris := make([]string, len(got))
	for i, item := range got {
		uris[i] = item.URI
	}
	assert.ElementsMatch(t, []string{"a/result-0.go", "c/result-0.go"}, uris)

	var failed int
	for _, step := range steps.Steps() {
		if step.Title == "TOOLB" {
			assert.Equal(t, process.StatusError, step.Status)
			assert.Equal(t, "backend down", step.Err)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "exactly one error step for the failing tool")
}

func TestReviewerSequentialToolsRunAfterConcurrent(t *testing.T) {
	var mu sync.Mutex
	var order []string
	mark := func(tag string) func(int) []domain.ContextItem {
		return func(run int) []domain.ContextItem {
			mu.Lock()
			order = append(order, tag)
			mu.Unlock()
			return yieldOne(tag)(run)
		}
	}
	shellA := &stubTool{tag: "SHELLA", sequential: true, yield: mark("SHELLA")}
	file := &stubTool{tag: "TOOLFILE", yield: mark("TOOLFILE")}
	shellB := &stubTool{tag: "SHELLB", sequential: true, yield: mark("SHELLB")}
	chat := llm.NewMockStreamer("<SHELLA>a</SHELLA><TOOLFILE>f</TOOLFILE><SHELLB>b</SHELLB>")
	r, _ := newTestReviewer(chat, []tool.Tool{shellA, file, shellB}, Config{MaxLoops: 1})

	got := r.RetrieveContext(context.Background(), "", "q", nil)

	require.Len(t, order, 3)
	assert.Equal(t, "TOOLFILE", order[0], "concurrent tools finish before sequential ones start")
	assert.Equal(t, []string{"SHELLA", "SHELLB"}, order[1:], "sequential tools run in registration order")

	// Concatenation is concurrent-first, then sequential in order.
	require.Len(t, got, 3)
	assert.Equal(t, "TOOLFILE/result-0.go", got[0].URI)
	assert.Equal(t, "SHELLA/result-0.go", got[1].URI)
	assert.Equal(t, "SHELLB/result-0.go", got[2].URI)
}

func TestReviewerStreamErrorReturnsAccumulatedContext(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: yieldOne("file")}
	chat := llm.NewMockStreamer("<TOOLFILE>more.go</TOOLFILE>")
	chat.FailWith(1, errors.New("model unavailable"))
	r, steps := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 5})

	got := r.RetrieveContext(context.Background(), "", "q", nil)

	assert.Len(t, got, 1, "the first iteration's item survives the second's failure")
	assert.Equal(t, 2, r.Stats().LoopsRun)

	primary := steps.Steps()[0]
	assert.Equal(t, "context review", primary.Title)
	assert.Equal(t, process.StatusError, primary.Status)
}

func TestReviewerCanceledContext(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE", yield: yieldOne("file")}
	chat := llm.NewMockStreamer("<TOOLFILE>more.go</TOOLFILE>")
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	initial := []domain.ContextItem{{URI: "a.go", Source: domain.SourceUser}}
	got := r.RetrieveContext(ctx, "", "q", initial)

	assert.Equal(t, initial, got)
	assert.Equal(t, 0, r.Stats().LoopsRun)
	assert.Equal(t, 0, file.runCount())
}

func TestReviewerStreamsTagContentToTools(t *testing.T) {
	file := &stubTool{tag: "TOOLFILE"}
	chat := llm.NewMockStreamer("find <TOOLFILE>internal/diff/engine.go</TOOLFILE> please")
	chat.ChunkSize = 3
	r, _ := newTestReviewer(chat, []tool.Tool{file}, Config{MaxLoops: 1})

	r.RetrieveContext(context.Background(), "", "q", nil)

	file.mu.Lock()
	defer file.mu.Unlock()
	assert.Equal(t, "internal/diff/engine.go", file.streamed)
}

func TestMentionedNames(t *testing.T) {
	names := mentionedNames("<context>a.go</context> text <context> b.go </context><context>a.go</context>")
	assert.Equal(t, []string{"a.go", "b.go"}, names)
	assert.Empty(t, mentionedNames("no mentions"))
	assert.Empty(t, mentionedNames("<context></context>"))
}

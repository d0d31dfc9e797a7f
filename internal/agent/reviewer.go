package agent

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/llm"
	"github.com/perch-hq/agentic-context-engine/internal/process"
	"github.com/perch-hq/agentic-context-engine/internal/tool"
	"github.com/perch-hq/agentic-context-engine/internal/workspace"
)

// DefaultMaxLoops bounds the review iterations when the config leaves it
// unset.
const DefaultMaxLoops = 2

// toolContextTitle marks raw tool-span items that must not be appended to
// the working context.
const toolContextTitle = "TOOLCONTEXT"

// Config tunes a Reviewer.
type Config struct {
	MaxLoops  int
	Model     string
	MaxTokens int
	IDEName   string
}

// Stats are the running counters a reviewer accumulates for telemetry.
type Stats struct {
	ToolsInvoked int
	ItemsFetched int
	LoopsRun     int
}

// Reviewer drives the iterative context-retrieval loop. A Reviewer is bound
// to one session's tool set; each RetrieveContext call owns its working
// context exclusively for the call's duration.
type Reviewer struct {
	chat     llm.Streamer
	tools    []tool.Tool
	steps    *process.Manager
	resolver workspace.Resolver
	cfg      Config
	logger   *zap.Logger

	toolsInvoked atomic.Int64
	itemsFetched atomic.Int64
	loopsRun     atomic.Int64
}

// NewReviewer creates a reviewer. resolver may be nil, in which case
// reflection keeps the items it already holds. A nil logger is replaced
// with zap.NewNop().
func NewReviewer(chat llm.Streamer, tools []tool.Tool, steps *process.Manager, resolver workspace.Resolver, cfg Config, logger *zap.Logger) *Reviewer {
	if cfg.MaxLoops <= 0 {
		cfg.MaxLoops = DefaultMaxLoops
	}
	if cfg.IDEName == "" {
		cfg.IDEName = "your IDE"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if steps == nil {
		steps = process.NewManager(nil, logger)
	}
	return &Reviewer{
		chat:     chat,
		tools:    tools,
		steps:    steps,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger.Named("reviewer"),
	}
}

// Stats returns a snapshot of the reviewer's counters.
func (r *Reviewer) Stats() Stats {
	return Stats{
		ToolsInvoked: int(r.toolsInvoked.Load()),
		ItemsFetched: int(r.itemsFetched.Load()),
		LoopsRun:     int(r.loopsRun.Load()),
	}
}

// RetrieveContext runs the review loop and returns the final context set.
// It never fails outright: stream or reflection errors end the loop and
// whatever context has accumulated is returned. Cancellation of ctx is
// honored at iteration boundaries and mid-stream.
func (r *Reviewer) RetrieveContext(ctx context.Context, requestID, question string, initial []domain.ContextItem) []domain.ContextItem {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	working := make([]domain.ContextItem, len(initial))
	copy(working, initial)

	stepID := r.steps.StartStep("context review", question)
	var loopErr error
	defer func() { r.steps.CompleteStep(stepID, loopErr) }()

	for loop := 0; loop < r.cfg.MaxLoops; loop++ {
		if ctx.Err() != nil {
			break
		}
		r.loopsRun.Add(1)

		newItems, err := r.review(ctx, &working, requestID, question)
		if err != nil {
			// Iteration-scope failure: log, treat as an empty-result
			// iteration, and let the termination checks end the loop.
			r.logger.Warn("review iteration failed",
				zap.String("request_id", requestID),
				zap.Int("loop", loop),
				zap.Error(err))
			loopErr = err
			break
		}

		if len(newItems) == 0 {
			break
		}
		if allUserAdded(newItems) {
			// Nothing new was learned; everything retrieved is already
			// pinned by the user.
			break
		}

		for _, item := range newItems {
			if item.Title == toolContextTitle {
				continue
			}
			working = append(working, item)
			r.itemsFetched.Add(1)
		}
	}

	r.logger.Debug("context retrieval finished",
		zap.String("request_id", requestID),
		zap.Int("items", len(working)),
		zap.Int64("loops", r.loopsRun.Load()))
	return working
}

// review runs one iteration: prompt, stream, tool execution, reflection.
// It may replace *working wholesale when reflection resolves names; the
// returned slice holds only the iteration's newly retrieved items.
func (r *Reviewer) review(ctx context.Context, working *[]domain.ContextItem, requestID, question string) ([]domain.ContextItem, error) {
	explicit, implicit := partitionContext(*working)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(r.tools, r.cfg.IDEName)},
		{Role: llm.RoleUser, Content: buildUserPrompt(question, explicit, implicit)},
	}

	mux := newMultiplexer()
	for _, t := range r.tools {
		mux.Subscribe(t.Tag(), t.Stream, nil)
	}

	response, err := r.streamResponse(ctx, mux, messages, requestID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(response)
	if trimmed == "" || trimmed == ReadySentinel {
		return nil, nil
	}

	items := r.executeTools(ctx)
	r.reflect(ctx, working, trimmed)
	return items, nil
}

// streamResponse consumes one completion stream, publishing every snapshot
// to the multiplexer. The multiplexer's turn-complete notification fires
// exactly once in all outcomes, including abort and stream error.
func (r *Reviewer) streamResponse(ctx context.Context, mux *multiplexer, messages []llm.Message, requestID string) (string, error) {
	var response string
	defer func() { mux.NotifyTurnComplete(response) }()

	events, err := r.chat.Chat(ctx, messages, llm.Options{Model: r.cfg.Model, MaxTokens: r.cfg.MaxTokens}, requestID)
	if err != nil {
		return "", err
	}

	for ev := range events {
		switch ev.Type {
		case llm.EventChange:
			response = ev.Text
			mux.Publish(response)
		case llm.EventComplete:
			response = ev.Text
			return response, nil
		case llm.EventError:
			return response, ev.Err
		}
		// Stop reading further deltas once the caller aborts; tools
		// already started are still run to completion by the caller.
		if ctx.Err() != nil {
			return response, ctx.Err()
		}
	}
	return response, nil
}

// executeTools runs every registered tool against its buffered input.
// Non-sequential tools are fanned out concurrently; sequential tools run
// one after another afterwards. A tool's failure is recorded as a
// completed-with-error step for its tag and yields no items; it never
// affects sibling tools. Results are concatenated concurrent-first in
// registration order.
func (r *Reviewer) executeTools(ctx context.Context) []domain.ContextItem {
	results := make([][]domain.ContextItem, len(r.tools))

	var g errgroup.Group
	for i, t := range r.tools {
		if t.Sequential() {
			continue
		}
		i, t := i, t
		g.Go(func() error {
			results[i] = r.runTool(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range r.tools {
		if t.Sequential() {
			results[i] = r.runTool(ctx, t)
		}
	}

	var items []domain.ContextItem
	for i, t := range r.tools {
		if !t.Sequential() {
			items = append(items, results[i]...)
		}
	}
	for i, t := range r.tools {
		if t.Sequential() {
			items = append(items, results[i]...)
		}
	}
	return items
}

func (r *Reviewer) runTool(ctx context.Context, t tool.Tool) []domain.ContextItem {
	stepID := r.steps.StartStep(t.Tag(), "")
	r.toolsInvoked.Add(1)

	items, err := t.Run(ctx, r.steps)
	if err != nil {
		r.logger.Debug("tool failed", zap.String("tag", t.Tag()), zap.Error(err))
		r.steps.CompleteStep(stepID, err)
		return nil
	}
	if len(items) > 0 {
		r.steps.AttachItems(stepID, items)
	}
	r.steps.CompleteStep(stepID, nil)
	return items
}

func allUserAdded(items []domain.ContextItem) bool {
	for _, item := range items {
		if !item.IsUserAdded() {
			return false
		}
	}
	return true
}

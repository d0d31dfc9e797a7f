package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/perch-hq/agentic-context-engine/internal/agent"
	"github.com/perch-hq/agentic-context-engine/internal/config"
	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/git"
	"github.com/perch-hq/agentic-context-engine/internal/llm"
	"github.com/perch-hq/agentic-context-engine/internal/process"
	"github.com/perch-hq/agentic-context-engine/internal/terminal"
	"github.com/perch-hq/agentic-context-engine/internal/tool"
	"github.com/perch-hq/agentic-context-engine/internal/workspace"
)

func newRetrieveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve QUESTION [FILE...]",
		Short: "Gather the context needed to answer a question",
		Long: `Run the iterative review loop: the model inspects the shared context,
invokes retrieval tools until it has enough, and the final context set is
printed to stdout. FILE arguments seed the context as user-shared files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRetrieve,
	}
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	logger := terminal.NewLogger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			logger.Log("Interrupted, shutting down...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
	}()

	resolved, err := resolveConfig(cmd, logger)
	if err != nil {
		return err
	}

	zlog := buildLogger(resolved.LogLevel)
	defer func() { _ = zlog.Sync() }()

	apiKey := config.APIKey()
	if apiKey == "" {
		return fmt.Errorf("no API key: set ACE_OPENAI_API_KEY or OPENAI_API_KEY")
	}
	streamer, err := llm.NewOpenAIStreamer(apiKey, resolved.BaseURL, zlog)
	if err != nil {
		return err
	}

	resolver := workspace.NewDirResolver(resolved.Workspace)
	tools, err := buildTools(resolved, resolver, zlog)
	if err != nil {
		return err
	}

	printer := terminal.NewStepPrinter(os.Stderr, verbose)
	steps := process.NewManager(printer, zlog)

	reviewer := agent.NewReviewer(streamer, tools, steps, resolver, agent.Config{
		MaxLoops:  resolved.MaxLoops,
		Model:     resolved.Model,
		MaxTokens: resolved.MaxTokens,
		IDEName:   resolved.IDEName,
	}, zlog)

	question := args[0]
	initial, err := seedContext(ctx, resolver, args[1:])
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithTimeout(ctx, resolved.Timeout)
	defer cancelRun()

	var spinDone chan struct{}
	var stopSpin context.CancelFunc
	if !verbose {
		var spinCtx context.Context
		spinCtx, stopSpin = context.WithCancel(ctx)
		spinner := terminal.NewPhaseSpinner("Reviewing context")
		spinDone = make(chan struct{})
		go func() {
			spinner.Run(spinCtx)
			close(spinDone)
		}()
	}

	start := time.Now()
	items := reviewer.RetrieveContext(runCtx, "", question, initial)
	if stopSpin != nil {
		stopSpin()
		<-spinDone
	}

	for _, item := range items {
		fmt.Printf("%s  (%s, ~%d tokens)\n", item.URI, item.Source, domain.TokenEstimate(item.Content))
		if verbose && item.Content != "" {
			fmt.Println(item.Content)
		}
	}

	stats := reviewer.Stats()
	logger.Logf(terminal.StyleDim, "%d loop(s), %d tool call(s), %d item(s) fetched in %s",
		stats.LoopsRun, stats.ToolsInvoked, stats.ItemsFetched, terminal.FormatDuration(time.Since(start)))
	return nil
}

// resolveConfig loads the config file (unless --no-config) and applies the
// flag > env > file > default precedence.
func resolveConfig(cmd *cobra.Command, logger *terminal.Logger) (config.ResolvedConfig, error) {
	// Unless overridden, the workspace is the enclosing git repository so
	// relative mentions resolve the same way regardless of cwd.
	workspaceAutoDetected := false
	if workspaceDir == "" {
		if root, err := git.GetRoot("."); err == nil {
			workspaceDir = root
			workspaceAutoDetected = true
		} else {
			workspaceDir = "."
		}
	}

	var cfg *config.Config
	if !noConfig {
		result, err := config.LoadFromDirWithWarnings(workspaceDir)
		if err != nil {
			return config.ResolvedConfig{}, err
		}
		cfg = result.Config
		for _, warning := range result.Warnings {
			logger.Logf(terminal.StyleWarning, "Warning: %s", warning)
		}
	}

	flagState := config.FlagState{
		ModelSet:     cmd.Flags().Changed("model"),
		BaseURLSet:   cmd.Flags().Changed("base-url"),
		MaxTokensSet: cmd.Flags().Changed("max-tokens"),
		MaxLoopsSet:  cmd.Flags().Changed("max-loops"),
		WorkspaceSet: cmd.Flags().Changed("workspace") || workspaceAutoDetected,
		TimeoutSet:   cmd.Flags().Changed("timeout"),
		LogLevelSet:  cmd.Flags().Changed("log-level"),
	}
	flagValues := config.ResolvedConfig{
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
		MaxLoops:  maxLoops,
		Workspace: workspaceDir,
		Timeout:   timeout,
		LogLevel:  logLevel,
	}

	return config.Resolve(cfg, config.LoadEnvState(), flagState, flagValues), nil
}

// buildTools instantiates the enabled retrieval tools.
func buildTools(resolved config.ResolvedConfig, resolver workspace.Resolver, zlog *zap.Logger) ([]tool.Tool, error) {
	registry := tool.NewRegistry(zlog)
	for _, name := range resolved.Tools {
		var t tool.Tool
		switch name {
		case "file":
			t = tool.NewFileTool(resolver)
		case "search":
			t = tool.NewSearchTool(resolved.Workspace)
		case "shell":
			t = tool.NewShellTool(resolved.Workspace, resolved.ShellAllow)
		default:
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry.All(), nil
}

// seedContext resolves the FILE arguments into user-shared context items.
func seedContext(ctx context.Context, resolver workspace.Resolver, paths []string) ([]domain.ContextItem, error) {
	var items []domain.ContextItem
	for _, path := range paths {
		item, err := resolver.Resolve(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", path, err)
		}
		if item == nil {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		items = append(items, item.WithSource(domain.SourceUser))
	}
	return items, nil
}

// buildLogger creates the structured logger behind the styled terminal one.
func buildLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	zlog, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return zlog
}

// Package main provides the CLI entry point for the agentic context engine.
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/perch-hq/agentic-context-engine/internal/terminal"
)

var (
	noColor      bool
	verbose      bool
	noConfig     bool
	workspaceDir string
	model        string
	baseURL      string
	maxTokens    int
	maxLoops     int
	timeout      time.Duration
	logLevel     string
)

// version is overridden at release time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "ace",
		Short: "Agentic context engine - iterative context retrieval and diff decoration",
		Long: `Gather the context an LLM needs to answer a question about a codebase,
by iteratively reviewing what is known and invoking retrieval tools, and
render AI-proposed edits as structured diffs.

Exit codes:
  0 - Success
  2 - Error
  130 - Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if noColor || !terminal.IsStdoutTTY() {
				terminal.DisableColors()
			}
		},
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Print streamed agent output as it arrives")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false,
		"Skip loading .ace.yaml config file")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "",
		"Workspace root for retrieval tools (default: current directory)")

	retrieveCmd := newRetrieveCmd()
	retrieveCmd.Flags().StringVarP(&model, "model", "m", "",
		"Model for review completions (default: gpt-4o-mini, env: ACE_MODEL)")
	retrieveCmd.Flags().StringVar(&baseURL, "base-url", "",
		"OpenAI-compatible API base URL (env: ACE_BASE_URL)")
	retrieveCmd.Flags().IntVar(&maxTokens, "max-tokens", 0,
		"Max completion tokens per review turn (default: 4000)")
	retrieveCmd.Flags().IntVar(&maxLoops, "max-loops", 0,
		"Max review iterations (default: 2, env: ACE_MAX_LOOPS)")
	retrieveCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0,
		"Overall retrieval timeout (default: 5m, env: ACE_TIMEOUT)")
	retrieveCmd.Flags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: info, env: ACE_LOG_LEVEL)")
	setGroupedUsage(retrieveCmd)

	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(newDiffCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// buildVersionString embeds VCS metadata when built from source.
func buildVersionString() string {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok && v == "dev" {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				v = "dev-" + setting.Value[:7]
				break
			}
		}
	}
	return v
}

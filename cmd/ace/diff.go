package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perch-hq/agentic-context-engine/internal/diff"
	"github.com/perch-hq/agentic-context-engine/internal/terminal"
)

var statsOnly bool

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Render the structured diff between two files",
		Long: `Compute the line and character level change model between two text
files and render it with per-line markers and intra-line highlights.`,
		Args: cobra.ExactArgs(2),
		RunE: runDiff,
	}
	cmd.Flags().BoolVar(&statsOnly, "stats", false,
		"Print the change summary only")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	original, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	modified, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	info := diff.Decorate(string(original), string(modified))
	stats := diff.ComputeStats(info)

	if !statsOnly {
		renderer := terminal.NewDiffRenderer(terminal.ColorsEnabled())
		fmt.Println(renderer.Render(info))
		fmt.Println(terminal.Ruler(terminal.ReportWidth(), "─"))
	}
	fmt.Println(terminal.RenderStats(stats))
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagGroup defines a named group of flags for help output.
type flagGroup struct {
	title string
	flags []string
}

// flagGroups defines the logical groupings for CLI flags.
// Flags not listed here appear under "Other Flags".
var flagGroups = []flagGroup{
	{
		title: "Retrieval Settings",
		flags: []string{"max-loops", "timeout", "verbose", "workspace"},
	},
	{
		title: "Model Settings",
		flags: []string{"model", "base-url", "max-tokens"},
	},
	{
		title: "Advanced",
		flags: []string{"no-config", "no-color", "log-level"},
	},
}

// setGroupedUsage configures the command to display flags in logical groups.
func setGroupedUsage(cmd *cobra.Command) {
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		fmt.Fprintf(c.OutOrStderr(), "Usage:\n  %s\n", c.UseLine())

		// Track which flags have been placed in a group
		grouped := make(map[string]bool)

		for _, group := range flagGroups {
			fs := pflag.NewFlagSet(group.title, pflag.ContinueOnError)
			for _, name := range group.flags {
				if f := c.Flags().Lookup(name); f != nil {
					fs.AddFlag(f)
					grouped[name] = true
				}
				if f := c.InheritedFlags().Lookup(name); f != nil && !grouped[name] {
					fs.AddFlag(f)
					grouped[name] = true
				}
			}
			if usages := fs.FlagUsages(); strings.TrimSpace(usages) != "" {
				fmt.Fprintf(c.OutOrStderr(), "\n%s:\n%s", group.title, usages)
			}
		}

		// Collect ungrouped flags (help, version, any new flags not yet categorized)
		other := pflag.NewFlagSet("other", pflag.ContinueOnError)
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if !grouped[f.Name] {
				other.AddFlag(f)
			}
		})
		if usages := other.FlagUsages(); strings.TrimSpace(usages) != "" {
			fmt.Fprintf(c.OutOrStderr(), "\nOther Flags:\n%s", usages)
		}

		return nil
	})
}

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relnote/internal/history"
)

func newHistoryCmd(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View the release log",
		Long: `View the releases recorded by --release: timestamp, project, version and tag.
The newest tag is the default boundary for the next changelog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			histFile, err := history.LoadHistory(cfg.StateDir)
			if err != nil {
				return fmt.Errorf("loading release log: %w", err)
			}

			entries := histFile.Entries
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No releases recorded.")
				return nil
			}

			displayEntries(cmd, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit to last N releases (most recent)")
	return cmd
}

// displayEntries prints one line per release, oldest first.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, entry := range entries {
		name := entry.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%s  %-20s  %-12s  %s\n",
			cyan(entry.Timestamp.Format("2006-01-02 15:04:05")),
			name,
			entry.Version,
			green(entry.Tag),
		)
	}
}

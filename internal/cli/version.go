package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relnote/internal/build"
)

func newVersionCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for relnote",
		Example: `  # Show version info
  relnote version

  # Plain output (for scripts)
  relnote version --plain`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if plain {
				fmt.Fprintf(out, "relnote %s\n", build.Version)
				fmt.Fprintf(out, "commit: %s\n", build.Commit)
				fmt.Fprintf(out, "built: %s\n", build.BuildDate)
				fmt.Fprintf(out, "go: %s\n", runtime.Version())
				fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				return
			}

			cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintln(out, cyan(build.Info()))
			fmt.Fprintf(out, "%s %s\n", yellow("Go:      "), runtime.Version())
			fmt.Fprintf(out, "%s %s/%s\n", yellow("Platform:"), runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Plain output without formatting")
	return cmd
}

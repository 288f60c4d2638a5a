package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/relnote/internal/errors"
	"github.com/ariel-frischer/relnote/internal/news"
	"github.com/ariel-frischer/relnote/internal/release"
)

func newNewsCmd(global *globalOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "news [version]",
		Short: "Print a NEWS entry",
		Long: `Print the NEWS entry for a version, the same text --notes uses for the
announcement. Without a version the one from the project header is shown.`,
		Example: `  # Entry for the version being released
  relnote news

  # Entry for an older release
  relnote news 0.21.4

  # Versions with an entry
  relnote news --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			path := cfg.ResolvePath(cfg.NewsFile)
			data, err := os.ReadFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			content := string(data)

			out := cmd.OutOrStdout()
			if list {
				for _, v := range news.Versions(content) {
					fmt.Fprintln(out, v)
				}
				return nil
			}

			var version string
			if len(args) == 1 {
				version = args[0]
			} else {
				meta, err := (&release.Pipeline{Config: cfg}).Metadata()
				if err != nil {
					return err
				}
				version = meta.Version
			}

			body := news.Extract(content, version)
			if body == "" {
				return clierrors.NewsVersionNotFound(version, news.Versions(content))
			}
			fmt.Fprintln(out, body)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the versions with a NEWS entry")
	return cmd
}

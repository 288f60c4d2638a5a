package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relnote/internal/config"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage relnote configuration",
		Long: `Manage relnote configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (RELNOTE_*)
  2. Project config (.relnote/config.yml, or .relnote/config.json)
  3. User config (~/.config/relnote/config.yml)
  4. Built-in defaults`,
		Example: `  # Print a commented config file
  relnote config template

  # Write it as the project config
  relnote config template --write

  # Show the effective configuration
  relnote config show`,
	}

	cmd.AddCommand(newConfigTemplateCmd(), newConfigShowCmd(global))
	return cmd
}

func newConfigTemplateCmd() *cobra.Command {
	var write, force bool

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl := config.GetDefaultConfigTemplate()
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), tmpl)
				return nil
			}

			path := config.ProjectConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write to "+config.ProjectConfigPath()+" instead of stdout")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing project config")
	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "repo_path: %s\n", cfg.RepoPath)
			fmt.Fprintf(out, "prev_tag: %s\n", cfg.PrevTag)
			fmt.Fprintf(out, "config_header: %s\n", cfg.ConfigHeader)
			fmt.Fprintf(out, "news_file: %s\n", cfg.NewsFile)
			fmt.Fprintf(out, "template_file: %s\n", cfg.TemplateFile)
			fmt.Fprintf(out, "history.backend: %s\n", cfg.History.Backend)
			fmt.Fprintf(out, "tracker.url: %s\n", cfg.Tracker.URL)
			fmt.Fprintf(out, "tracker.statuses: %v\n", cfg.Tracker.Statuses)
			fmt.Fprintf(out, "download.base_url: %s\n", cfg.Download.BaseURL)
			fmt.Fprintf(out, "upload.server: %s\n", cfg.Upload.Server)
			fmt.Fprintf(out, "mail.to: %s\n", cfg.Mail.To)
			fmt.Fprintf(out, "mail.command: %v\n", cfg.Mail.Command)
			fmt.Fprintf(out, "state_dir: %s\n", cfg.StateDir)
			fmt.Fprintf(out, "max_history_entries: %d\n", cfg.MaxHistoryEntries)
			return nil
		},
	}
}

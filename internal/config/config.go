// Package config provides hierarchical configuration management for relnote using koanf.
// Configuration is loaded with priority: environment variables > project config (.relnote/config.yml)
// > user config (~/.config/relnote/config.yml) > defaults. Project config may also be JSON.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "RELNOTE_"

// Configuration represents the relnote configuration
type Configuration struct {
	// PrevTag forces the boundary tag for the log query. When empty the
	// release log and then the newest repository tag are consulted.
	PrevTag string `koanf:"prev_tag"`

	RepoPath     string `koanf:"repo_path" validate:"required"`
	ConfigHeader string `koanf:"config_header" validate:"required"`
	NewsFile     string `koanf:"news_file" validate:"required"`
	// TemplateFile replaces the built-in announcement layout when set.
	TemplateFile string `koanf:"template_file"`

	History  HistoryConfig  `koanf:"history"`
	Tracker  TrackerConfig  `koanf:"tracker"`
	Download DownloadConfig `koanf:"download"`
	Upload   UploadConfig   `koanf:"upload"`
	Mail     MailConfig     `koanf:"mail"`

	StateDir string `koanf:"state_dir" validate:"required"`
	// MaxHistoryEntries caps the release log. Oldest entries are pruned first.
	MaxHistoryEntries int `koanf:"max_history_entries" validate:"min=1"`
}

// HistoryConfig selects how the commit log is produced.
type HistoryConfig struct {
	Backend string `koanf:"backend" validate:"oneof=go-git git"`
}

// TrackerConfig describes the Bugzilla-style bug tracker.
type TrackerConfig struct {
	URL          string   `koanf:"url" validate:"required,url"`
	Statuses     []string `koanf:"statuses" validate:"min=1"`
	Resolution   string   `koanf:"resolution"`
	WebsiteLabel string   `koanf:"website_label"`
}

type DownloadConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

type UploadConfig struct {
	Server   string `koanf:"server" validate:"required"`
	Username string `koanf:"username"`
}

type MailConfig struct {
	To      string   `koanf:"to" validate:"required"`
	From    string   `koanf:"from"`
	Command []string `koanf:"command" validate:"min=1"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .relnote/config.yml)
	ProjectConfigPath string
	// SkipUserConfig ignores the user-level file. Tests use it to stay hermetic.
	SkipUserConfig bool
	// WarningWriter receives warnings (default: os.Stderr)
	WarningWriter io.Writer
}

// Load loads configuration from user, project, and environment sources.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

func loadUserConfig(k *koanf.Koanf) error {
	userPath, err := UserConfigPath()
	if err != nil || !fileExists(userPath) {
		return nil
	}
	if err := loadFile(k, userPath, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project file. An explicit path must exist;
// the default YAML path falls back to .relnote/config.json.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer) error {
	if customPath != "" {
		if !fileExists(customPath) {
			return fmt.Errorf("config file %s does not exist", customPath)
		}
		if err := loadFile(k, customPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		return nil
	}

	yamlPath := ProjectConfigPath()
	jsonPath := ProjectJSONConfigPath()

	switch {
	case fileExists(yamlPath):
		if err := loadFile(k, yamlPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if fileExists(jsonPath) {
			fmt.Fprintf(warningWriter, "Warning: %s ignored, using %s\n", jsonPath, yamlPath)
		}
	case fileExists(jsonPath):
		if err := loadFile(k, jsonPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
	}
	return nil
}

// loadFile picks the parser from the file extension. YAML files are
// syntax-checked first so errors carry line numbers.
func loadFile(k *koanf.Koanf, path, configType string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
		}
		return nil
	}

	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// commandKeys hold argv lists. Their environment values are split with
// shell quoting rules instead of on commas.
var commandKeys = map[string]struct{}{
	"mail.command": {},
}

// loadEnvironmentConfig loads RELNOTE_* overrides. Only variables naming a
// known key are used; list keys are comma separated. A command value that
// cannot be split is ignored.
func loadEnvironmentConfig(k *koanf.Koanf) error {
	known := envKeys()
	provider := env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, interface{}) {
		key, ok := known[name]
		if !ok {
			return "", nil
		}
		if _, isCommand := commandKeys[key]; isCommand {
			args, err := shlex.Split(value)
			if err != nil {
				return "", nil
			}
			return key, args
		}
		if _, isList := GetDefaults()[key].([]string); isList {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// envKeys maps RELNOTE_TRACKER_URL style names to their dotted keys.
func envKeys() map[string]string {
	keys := make(map[string]string)
	for key := range GetDefaults() {
		keys[EnvVarName(key)] = key
	}
	return keys
}

// EnvVarName returns the environment variable that overrides key.
func EnvVarName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.Tracker.URL = strings.TrimRight(cfg.Tracker.URL, "/")

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// ResolvePath joins a repository-relative path such as news_file onto
// RepoPath. Absolute paths are returned unchanged.
func (c *Configuration) ResolvePath(path string) string {
	if filepath.IsAbs(path) || c.RepoPath == "" {
		return path
	}
	return filepath.Join(c.RepoPath, path)
}

// Package testutil provides test helpers for faking the external commands
// relnote runs (scp, ssh, sendmail, git).
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
)

// HelperProcessConfig configures the behavior of TestHelperProcess.
type HelperProcessConfig struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
	// StdinFile, when set, receives everything read from stdin.
	StdinFile string `json:"stdin_file,omitempty"`
}

const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
	// EnvHelperProcessArgs contains the faked command line (JSON array).
	EnvHelperProcessArgs = "GO_HELPER_PROCESS_ARGS"
)

// TestHelperProcess turns the test binary into a fake command when
// GO_WANT_HELPER_PROCESS=1 and exits; otherwise it returns immediately.
//
// Usage in test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := HelperProcessConfig{}
	if raw := os.Getenv(EnvHelperProcessConfig); raw != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(raw), &config)
	}

	if config.StdinFile != "" {
		data, _ := io.ReadAll(os.Stdin)
		_ = os.WriteFile(config.StdinFile, data, 0o644)
	}
	if config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}
	if config.Stderr != "" {
		fmt.Fprint(os.Stderr, config.Stderr)
	}

	os.Exit(config.ExitCode)
}

// HelperCommand returns a CommandContext replacement that starts the test
// binary as testName's helper process instead of the real program. The
// faked command line is passed through GO_HELPER_PROCESS_ARGS.
func HelperCommand(t *testing.T, testName string, config HelperProcessConfig) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}

	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, testBinary, "-test.run=^"+testName+"$")
		cmd.Env = buildHelperEnv(config, append([]string{name}, args...))
		return cmd
	}
}

// buildHelperEnv constructs the environment variables for helper process.
func buildHelperEnv(config HelperProcessConfig, args []string) []string {
	env := os.Environ()
	env = append(env, EnvWantHelperProcess+"=1")

	if configJSON, err := json.Marshal(config); err == nil {
		env = append(env, EnvHelperProcessConfig+"="+string(configJSON))
	}
	if argsJSON, err := json.Marshal(args); err == nil {
		env = append(env, EnvHelperProcessArgs+"="+string(argsJSON))
	}

	return env
}

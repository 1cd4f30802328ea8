package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vnykmshr/asyncrt/internal/cli"
	"github.com/vnykmshr/asyncrt/internal/testutil"
)

// execRoot runs the root command with args and returns stdout and stderr.
func execRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rc := cli.NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	rc.SetArgs(args)
	err := rc.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := execRoot(t, "--help")
	testutil.AssertNoError(t, err)
	for _, want := range []string{"Usage:", "Available Commands:", "bench", "exec", "cpus"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestCPUsCommand(t *testing.T) {
	out, _, err := execRoot(t, "cpus")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, strings.HasPrefix(out, "logical="), true)
}

func TestBenchCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"pool", []string{"bench", "--tasks", "200", "--workers", "2"}},
		{"dedicated", []string{"bench", "--tasks", "50", "--workers", "2", "--dedicated"}},
		{"fire and forget", []string{"bench", "--tasks", "200", "--workers", "2", "--after-released"}},
		{"detached", []string{"bench", "--tasks", "50", "--dedicated", "--after-released"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execRoot(t, append(tt.args, "--log-level", "error")...)
			testutil.AssertNoError(t, err)
			if !strings.Contains(out, "executed=") {
				t.Fatalf("unexpected output: %s", out)
			}
		})
	}
}

func TestBenchConfigFromEnv(t *testing.T) {
	t.Setenv("ASYNCRT_TASKS", "7")
	t.Setenv("ASYNCRT_WORKERS", "1")

	out, _, err := execRoot(t, "bench", "--log-level", "error")
	testutil.AssertNoError(t, err)
	if !strings.Contains(out, "submitted=7 executed=7") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestBenchConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asyncrt.toml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("tasks = 5\nworkers = 1\nlog-level = \"error\"\n"), 0o600))

	// A flag overrides the file.
	out, _, err := execRoot(t, "bench", "--config", path, "--tasks", "3")
	testutil.AssertNoError(t, err)
	if !strings.Contains(out, "submitted=3 executed=3") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asyncrt.toml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("bogus = 1\n"), 0o600))

	_, _, err := execRoot(t, "bench", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "invalid option") {
		t.Fatalf("got %v, want invalid option error", err)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execRoot(t, "cpus", "--log-level", "loud")
	testutil.AssertNoError(t, err)

	_, _, err = execRoot(t, "bench", "--tasks", "1", "--log-level", "loud")
	testutil.AssertError(t, err)
}

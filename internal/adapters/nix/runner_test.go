package nix_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/nix"
)

// fakeNix records invocations and replays a canned answer.
// The flake.nix of every locked flake is captured in flakes.
type fakeNix struct {
	args   [][]string
	flakes []string
	output []byte
	err    error
}

func (f *fakeNix) run(_ context.Context, args ...string) ([]byte, error) {
	f.args = append(f.args, args)
	if len(args) == 3 && args[0] == "flake" && args[1] == "lock" {
		dir, ok := strings.CutPrefix(args[2], "path:")
		if !ok {
			return nil, errors.New("flake is not a path reference")
		}
		data, err := os.ReadFile(filepath.Join(dir, "flake.nix"))
		if err != nil {
			return nil, err
		}
		f.flakes = append(f.flakes, string(data))
	}
	return f.output, f.err
}

// installable returns the flake output reference nix was asked to run against.
func installable(t *testing.T, args []string) (dir, attr string) {
	t.Helper()
	require.NotEmpty(t, args)
	ref, ok := strings.CutPrefix(args[len(args)-1], "path:")
	require.True(t, ok, "last argument is a path flake reference")
	dir, attr, ok = strings.Cut(ref, "#")
	require.True(t, ok, "flake reference selects an output")
	return dir, attr
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("nix"); err != nil {
		t.Skip("nix not installed")
	}

	out, err := nix.ExecRunner(context.Background(), "--version")
	require.NoError(t, err)
	assert.Contains(t, string(out), "nix")
}

// Package nix locks sources, resolves versioned packages and materializes shells with the Nix CLI.
package nix

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// experimentalFeatures enables the flake commands regardless of the user's nix.conf.
const experimentalFeatures = "nix-command flakes"

// Runner runs the nix CLI with args and returns its standard output.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ExecRunner runs the nix binary found on PATH.
func ExecRunner(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"--extra-experimental-features", experimentalFeatures}, args...)

	//nolint:gosec // args are built by this package from validated descriptor data
	cmd := exec.CommandContext(ctx, "nix", full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		nixErr := zerr.Wrap(err, "nix command failed")
		nixErr = zerr.With(nixErr, "args", strings.Join(args, " "))
		return nil, zerr.With(nixErr, "stderr", strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// flakeFileName is the file nix reads a flake from.
const flakeFileName = "flake.nix"

// createFlakeDir writes src as the flake.nix of a fresh temporary directory.
func createFlakeDir(src string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "devshell-flake-*")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp flake directory")
	}

	cleanup = func() {
		_ = os.RemoveAll(dir)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, flakeFileName), []byte(src), 0o600); writeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write flake.nix")
	}

	return dir, cleanup, nil
}

// runFlake writes src to a temporary flake, locks it so follows rules are applied to
// the nested inputs, then runs nix with args followed by the flake output attr.
func runFlake(ctx context.Context, run Runner, src, attr string, args ...string) ([]byte, error) {
	dir, cleanup, err := createFlakeDir(src)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ref := "path:" + dir
	if _, err := run(ctx, "flake", "lock", ref); err != nil {
		return nil, err
	}
	return run(ctx, append(args, ref+"#"+attr)...)
}

package shell

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

// CapturedMarker replaces the redirection target of commands whose output is captured.
const CapturedMarker = "CAPTURED"

// Validate rejects commands whose environment cannot be rendered faithfully.
func Validate(cmd *domain.Command) error {
	if _, ok := cmd.Env["PATH"]; ok {
		return zerr.With(zerr.Wrap(domain.ErrPathInExtraEnv, "invalid command environment"), "command", cmd.Name)
	}
	for _, p := range cmd.ExtraPaths {
		if strings.Contains(p, ":") {
			return zerr.With(zerr.Wrap(domain.ErrColonInPath, "invalid extra path"), "path", p)
		}
	}
	return nil
}

// Render returns a bash line equivalent to running cmd from cwd, for logging.
// A working directory other than cwd becomes a relative cd, extra variables are
// prefixed as assignments and extra paths are prepended to PATH.
func Render(cmd *domain.Command, cwd string, captured bool) (string, error) {
	if err := Validate(cmd); err != nil {
		return "", err
	}

	var parts []string

	if cmd.Dir != "" && filepath.Clean(cmd.Dir) != filepath.Clean(cwd) {
		dir := cmd.Dir
		if rel, err := filepath.Rel(cwd, cmd.Dir); err == nil {
			dir = rel
		}
		parts = append(parts, "cd", shellescape.Quote(dir), "&&")
	}

	for _, k := range slices.Sorted(maps.Keys(cmd.Env)) {
		parts = append(parts, shellescape.Quote(k+"="+cmd.Env[k]))
	}

	if len(cmd.ExtraPaths) > 0 {
		parts = append(parts, `PATH="`+strings.Join(cmd.ExtraPaths, ":")+`:${PATH}"`)
	}

	if len(cmd.Args) > 0 {
		parts = append(parts, shellescape.QuoteCommand(cmd.Args))
	}

	if captured {
		parts = append(parts, "&>", CapturedMarker)
	}

	return strings.Join(parts, " "), nil
}

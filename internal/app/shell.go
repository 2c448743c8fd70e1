package app

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/engine/activation"
	"go.trai.ch/zerr"
)

// envVarName marks processes started inside a devshell environment.
const envVarName = "DEVSHELL_ENV"

// Shell starts an interactive bash with the environment of the selected platform.
// Activation runs inside that shell, so commands such as `source` take effect.
func (a *App) Shell(ctx context.Context, opts Options) error {
	env, err := a.Evaluate(ctx, opts)
	if err != nil {
		return err
	}

	rc, err := os.CreateTemp("", "devshell-rc-*.sh")
	if err != nil {
		return zerr.Wrap(err, "failed to create shell rc file")
	}
	defer func() {
		_ = os.Remove(rc.Name())
	}()

	if _, err := rc.WriteString(activation.Script(env)); err != nil {
		_ = rc.Close()
		return zerr.With(zerr.Wrap(err, "failed to write shell rc file"), "path", rc.Name())
	}
	if err := rc.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write shell rc file"), "path", rc.Name())
	}

	shell := a.settings.Shell
	if shell == "" {
		shell = activation.DefaultShell
	}
	if filepath.Base(shell) != activation.DefaultShell {
		a.logger.Warn("interactive shells require bash, ignoring shell setting " + shell)
		shell = activation.DefaultShell
	}

	return a.executor.Execute(ctx, &domain.Command{
		Name:        "shell",
		Args:        []string{shell, "--rcfile", rc.Name(), "-i"},
		Env:         map[string]string{envVarName: env.ID},
		Interactive: true,
	}, env.Vars, a.stdout, a.stderr)
}

// Hook evaluates the environment and runs its activation sequence step by step,
// stopping at the first failing step.
func (a *App) Hook(ctx context.Context, opts Options) error {
	env, err := a.Evaluate(ctx, opts)
	if err != nil {
		return err
	}
	return a.runner.Run(ctx, withEnvID(env), env.Activation, a.stdout, a.stderr)
}

// envDump is the JSON form of an evaluated environment.
type envDump struct {
	ID         string            `json:"id"`
	Platform   string            `json:"platform"`
	Cached     bool              `json:"cached"`
	Vars       map[string]string `json:"vars"`
	Activation []string          `json:"activation"`
}

// PrintEnv writes the evaluated environment to w, either as a sourceable script or as JSON.
func (a *App) PrintEnv(ctx context.Context, opts Options, w io.Writer, asJSON bool) error {
	env, err := a.Evaluate(ctx, opts)
	if err != nil {
		return err
	}

	if asJSON {
		dump := envDump{
			ID:         env.ID,
			Platform:   env.Platform.String(),
			Cached:     env.Cached,
			Vars:       make(map[string]string, len(env.Vars)),
			Activation: env.Activation.Commands(),
		}
		for _, kv := range env.Vars {
			if k, v, ok := strings.Cut(kv, "="); ok {
				dump.Vars[k] = v
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dump); err != nil {
			return zerr.Wrap(err, "failed to encode environment")
		}
		return nil
	}

	var b strings.Builder
	b.WriteString("export " + envVarName + "=" + shellescape.Quote(env.ID) + "\n")
	for _, line := range activation.ExportLines(env.Vars) {
		b.WriteString(line + "\n")
	}
	for _, cmd := range env.Activation.Commands() {
		b.WriteString(cmd + "\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return zerr.Wrap(err, "failed to write environment")
	}
	return nil
}

// RunScript runs the named script inside the environment. Extra args are appended to
// every command of the script. The activation hook is not replayed.
func (a *App) RunScript(ctx context.Context, name string, args []string, opts Options) error {
	desc, err := a.loader.Load(opts.File)
	if err != nil {
		return err
	}

	cmds, ok := desc.Scripts[name]
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrScriptNotFound, "unknown script"), "script", name)
		return zerr.With(err, "available", desc.ScriptNames())
	}

	env, err := a.evaluate(ctx, desc, opts)
	if err != nil {
		return err
	}

	suffix := ""
	if len(args) > 0 {
		suffix = " " + shellescape.QuoteCommand(args)
	}
	seq := make(domain.ActivationSequence, 0, len(cmds))
	for i, cmd := range cmds {
		seq = append(seq, domain.ActivationStep{Index: i + 1, Command: cmd + suffix})
	}

	return a.runner.Run(ctx, withEnvID(env), seq, a.stdout, a.stderr)
}

func withEnvID(env *domain.Environment) []string {
	vars := make([]string, 0, len(env.Vars)+1)
	vars = append(vars, env.Vars...)
	return append(vars, envVarName+"="+env.ID)
}

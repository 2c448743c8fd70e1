// Package shell provides a process executor and the bash rendering used to log commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// stderrTailLines is the number of trailing stderr lines attached to a failure.
	stderrTailLines = 10
	// waitDelay bounds how long output copying may outlive a cancelled process.
	waitDelay = 5 * time.Second
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs the command and waits for it to complete.
func (e *Executor) Execute(
	ctx context.Context,
	command *domain.Command,
	env []string,
	stdout, stderr io.Writer,
) error {
	if len(command.Args) == 0 {
		return nil
	}

	if err := Validate(command); err != nil {
		return err
	}

	if cwd, err := os.Getwd(); err == nil {
		if line, err := Render(command, cwd, false); err == nil {
			e.logger.Log(domain.LogLevelVerbose, "[RUNNING IN SHELL]: "+line)
		}
	}

	name := command.Args[0]
	args := command.Args[1:]

	// Construct the final environment
	cmdEnv := resolveEnvironment(os.Environ(), env, command.ExtraPaths, command.Env)

	// Resolve the executable path
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		lp, err := lookPath(name, cmdEnv)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrCommandNotFound, "executable is not on PATH"), "executable", name)
		}
		executable = lp
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = command.Dir
	cmd.Env = cmdEnv
	cmd.WaitDelay = waitDelay

	tail := &tailWriter{max: stderrTailLines}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)

	if command.Interactive {
		// The terminal delivers SIGINT to the whole process group; the child
		// decides how to react, so cancellation must not kill it.
		cmd.Stdin = os.Stdin
		cmd.Cancel = func() error { return nil }
	}

	if err := cmd.Run(); err != nil {
		return commandError(command, err, tail.String())
	}

	return nil
}

func commandError(command *domain.Command, err error, stderrTail string) error {
	// Capture exit code if possible
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	cmdErr := zerr.Wrap(domain.ErrCommandFailed, "failed to run command")
	cmdErr = zerr.With(cmdErr, "command", command.Name)
	cmdErr = zerr.With(cmdErr, "reason", err.Error())
	cmdErr = zerr.With(cmdErr, "exit_code", exitCode)
	if stderrTail != "" {
		cmdErr = zerr.With(cmdErr, "stderr", stderrTail)
	}
	return cmdErr
}

// ExitCode extracts the exit code recorded on a command failure.
func ExitCode(err error) (int, bool) {
	if code, ok := domain.ExitCode(err); ok {
		return code, true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// tailWriter keeps the last max lines written to it.
type tailWriter struct {
	mu    sync.Mutex
	max   int
	lines []string
	buf   []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)

	// Scan for newlines
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.push(strings.TrimSuffix(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *tailWriter) push(line string) {
	w.lines = append(w.lines, line)
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := w.lines
	if len(w.buf) > 0 {
		lines = append(lines[:len(lines):len(lines)], string(w.buf))
		if len(lines) > w.max {
			lines = lines[len(lines)-w.max:]
		}
	}
	return strings.Join(lines, "\n")
}

// resolveEnvironment merges environment variables with the defined priority:
// system < nix (PATH prepended) < extra paths < command overrides.
func resolveEnvironment(sysEnv, nixEnv, extraPaths []string, cmdEnv map[string]string) []string {
	// 1. Start with the system environment
	envMap := envToMap(sysEnv)

	// 2. Apply Nix Environment (Prepend PATH)
	applyNixEnv(envMap, nixEnv)

	// 3. Prepend extra paths in order
	if len(extraPaths) > 0 {
		prefix := strings.Join(extraPaths, string(os.PathListSeparator))
		if p := envMap["PATH"]; p != "" {
			envMap["PATH"] = prefix + string(os.PathListSeparator) + p
		} else {
			envMap["PATH"] = prefix
		}
	}

	// 4. Apply command overrides
	for k, v := range cmdEnv {
		envMap[k] = v
	}

	// Convert to slice
	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func envToMap(env []string) map[string]string {
	envMap := make(map[string]string, len(env))
	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	return envMap
}

func applyNixEnv(envMap map[string]string, nixEnv []string) {
	for _, entry := range nixEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
				continue
			}
		}
		envMap[k] = v
	}
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	// Find PATH in env
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

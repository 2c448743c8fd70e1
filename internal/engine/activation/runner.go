// Package activation runs activation sequences, either as separate processes or
// rendered into the rc script of an interactive shell.
package activation

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/devshell/internal/engine/steplog"
	"go.trai.ch/zerr"
)

// DefaultShell interprets every step.
const DefaultShell = "bash"

// Runner executes the steps of a sequence one at a time, stopping at the first failure.
type Runner struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	log       ports.Logger
	shell     string
	ping      time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell sets the shell each step is passed to with -c.
func WithShell(shell string) Option {
	return func(r *Runner) {
		if shell != "" {
			r.shell = shell
		}
	}
}

// WithPing logs a progress line every interval while a step runs.
func WithPing(interval time.Duration) Option {
	return func(r *Runner) {
		r.ping = interval
	}
}

// NewRunner creates a Runner.
func NewRunner(executor ports.Executor, telemetry ports.Telemetry, log ports.Logger, opts ...Option) *Runner {
	r := &Runner{
		executor:  executor,
		telemetry: telemetry,
		log:       log,
		shell:     DefaultShell,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes seq in order inside env. Step N+1 starts only after step N exited with
// status zero. Cancellation is checked before every step.
func (r *Runner) Run(ctx context.Context, env []string, seq domain.ActivationSequence, stdout, stderr io.Writer) error {
	for _, step := range seq {
		if err := ctx.Err(); err != nil {
			cancelErr := zerr.With(zerr.Wrap(err, "activation cancelled"), "step", step.Index)
			return zerr.With(cancelErr, "command", step.Command)
		}

		if err := r.runStep(ctx, env, step, len(seq), stdout, stderr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStep(
	ctx context.Context,
	env []string,
	step domain.ActivationStep,
	total int,
	stdout, stderr io.Writer,
) error {
	stepCtx, vertex := r.telemetry.Record(ctx, firstLine(step.Command))

	cmd := &domain.Command{
		Name: fmt.Sprintf("step %d", step.Index),
		Args: []string{r.shell, "-c", step.Command},
	}

	msg := fmt.Sprintf("[%d/%d] %s", step.Index, total, firstLine(step.Command))
	err := steplog.Run(r.log, msg, func(*steplog.Step) error {
		return r.executor.Execute(stepCtx, cmd, env,
			io.MultiWriter(stdout, vertex.Stdout()),
			io.MultiWriter(stderr, vertex.Stderr()))
	}, steplog.WithPing(r.ping))
	vertex.Complete(err)

	if err == nil {
		return nil
	}

	stepErr := zerr.With(zerr.Wrap(domain.ErrActivationFailed, err.Error()), "step", step.Index)
	stepErr = zerr.With(stepErr, "command", step.Command)
	if code, ok := domain.ExitCode(err); ok {
		stepErr = zerr.With(stepErr, "exit_code", code)
	}
	return stepErr
}

package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/cmd/devshell/commands"
	"go.trai.ch/devshell/internal/adapters/settings"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/build"
	"go.trai.ch/devshell/internal/core/domain"
)

type mockApp struct {
	configured *domain.Settings

	shellFunc    func(ctx context.Context, opts app.Options) error
	hookFunc     func(ctx context.Context, opts app.Options) error
	printEnvFunc func(ctx context.Context, opts app.Options, w io.Writer, asJSON bool) error
	lockFunc     func(ctx context.Context, opts app.LockOptions) error
	checkFunc    func(ctx context.Context, opts app.CheckOptions, w io.Writer) error
	runFunc      func(ctx context.Context, name string, args []string, opts app.Options) error
	infoFunc     func(ctx context.Context, opts app.Options, w io.Writer) error
}

func (m *mockApp) Configure(s *domain.Settings) {
	m.configured = s
}

func (m *mockApp) Shell(ctx context.Context, opts app.Options) error {
	if m.shellFunc != nil {
		return m.shellFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Hook(ctx context.Context, opts app.Options) error {
	if m.hookFunc != nil {
		return m.hookFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) PrintEnv(ctx context.Context, opts app.Options, w io.Writer, asJSON bool) error {
	if m.printEnvFunc != nil {
		return m.printEnvFunc(ctx, opts, w, asJSON)
	}
	return nil
}

func (m *mockApp) Lock(ctx context.Context, opts app.LockOptions) error {
	if m.lockFunc != nil {
		return m.lockFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Check(ctx context.Context, opts app.CheckOptions, w io.Writer) error {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, opts, w)
	}
	return nil
}

func (m *mockApp) RunScript(ctx context.Context, name string, args []string, opts app.Options) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args, opts)
	}
	return nil
}

func (m *mockApp) Info(ctx context.Context, opts app.Options, w io.Writer) error {
	if m.infoFunc != nil {
		return m.infoFunc(ctx, opts, w)
	}
	return nil
}

type fakeLogger struct {
	level domain.LogLevel
	json  bool
}

func (l *fakeLogger) Log(domain.LogLevel, string)    {}
func (l *fakeLogger) Debug(string)                   {}
func (l *fakeLogger) Info(string)                    {}
func (l *fakeLogger) Warn(string)                    {}
func (l *fakeLogger) Error(error)                    {}
func (l *fakeLogger) SetLevel(level domain.LogLevel) { l.level = level }
func (l *fakeLogger) SetJSON(enable bool)            { l.json = enable }

func newCLI(t *testing.T, a commands.Application, args ...string) (*commands.CLI, *fakeLogger, *bytes.Buffer) {
	t.Helper()
	log := &fakeLogger{}
	cli := commands.New(a, settings.NewWithPath(""), log)
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	cli.SetArgs(args)
	return cli, log, out
}

func TestCommands_GlobalFlags(t *testing.T) {
	var captured app.Options
	mock := &mockApp{
		hookFunc: func(_ context.Context, opts app.Options) error {
			captured = opts
			return nil
		},
	}

	cli, log, _ := newCLI(t, mock,
		"--file", "sub/devshell.yaml", "-s", "aarch64-darwin", "--frozen", "-l", "debug", "--log-format", "json", "hook")
	require.NoError(t, cli.Execute(t.Context()))

	assert.Equal(t, app.Options{File: "sub/devshell.yaml", System: "aarch64-darwin", Frozen: true}, captured)
	assert.Equal(t, domain.LogLevelDebug, log.level)
	assert.True(t, log.json)
	require.NotNil(t, mock.configured)
	assert.Equal(t, "bash", mock.configured.Shell)
}

func TestCommands_Defaults(t *testing.T) {
	var captured app.Options
	mock := &mockApp{
		shellFunc: func(_ context.Context, opts app.Options) error {
			captured = opts
			return nil
		},
	}

	cli, log, _ := newCLI(t, mock, "shell")
	require.NoError(t, cli.Execute(t.Context()))

	assert.Equal(t, domain.DescriptorFileName, captured.File)
	assert.False(t, captured.Frozen)
	assert.Equal(t, domain.LogLevelInfo, log.level)
	assert.False(t, log.json)
}

func TestCommands_InvalidLogLevel(t *testing.T) {
	cli, _, _ := newCLI(t, &mockApp{}, "-l", "loud", "hook")

	err := cli.Execute(t.Context())
	require.ErrorIs(t, err, domain.ErrInvalidLogLevel)
}

func TestCommands_PrintEnv(t *testing.T) {
	var asJSON bool
	mock := &mockApp{
		printEnvFunc: func(_ context.Context, _ app.Options, w io.Writer, j bool) error {
			asJSON = j
			_, err := io.WriteString(w, "export FOO=bar\n")
			return err
		},
	}

	cli, _, out := newCLI(t, mock, "print-env", "--json")
	require.NoError(t, cli.Execute(t.Context()))

	assert.True(t, asJSON)
	assert.Equal(t, "export FOO=bar\n", out.String())
}

func TestCommands_Lock(t *testing.T) {
	var captured app.LockOptions
	mock := &mockApp{
		lockFunc: func(_ context.Context, opts app.LockOptions) error {
			captured = opts
			return nil
		},
	}

	cli, _, _ := newCLI(t, mock, "lock", "--update", "-w")
	require.NoError(t, cli.Execute(t.Context()))

	assert.True(t, captured.Update)
	assert.True(t, captured.Watch)
	assert.False(t, captured.Frozen)
}

func TestCommands_Check(t *testing.T) {
	var captured app.CheckOptions
	mock := &mockApp{
		checkFunc: func(_ context.Context, opts app.CheckOptions, _ io.Writer) error {
			captured = opts
			return nil
		},
	}

	cli, _, _ := newCLI(t, mock, "check", "--all", "--build")
	require.NoError(t, cli.Execute(t.Context()))

	assert.True(t, captured.All)
	assert.True(t, captured.Build)
}

func TestCommands_Run(t *testing.T) {
	t.Run("passes script args through", func(t *testing.T) {
		var name string
		var args []string
		mock := &mockApp{
			runFunc: func(_ context.Context, n string, a []string, _ app.Options) error {
				name, args = n, a
				return nil
			},
		}

		cli, _, _ := newCLI(t, mock, "run", "lint", "--fix", "-v", "src")
		require.NoError(t, cli.Execute(t.Context()))

		assert.Equal(t, "lint", name)
		assert.Equal(t, []string{"--fix", "-v", "src"}, args)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, string, []string, app.Options) error {
				return errors.New("simulated error")
			},
		}

		cli, _, _ := newCLI(t, mock, "run", "lint")
		err := cli.Execute(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no script provided", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, string, []string, app.Options) error {
				panic("should not be called")
			},
		}

		cli, _, out := newCLI(t, mock, "run")
		require.NoError(t, cli.Execute(t.Context()))
		assert.Contains(t, out.String(), "Usage:")
	})
}

func TestCommands_Info(t *testing.T) {
	mock := &mockApp{
		infoFunc: func(_ context.Context, _ app.Options, w io.Writer) error {
			_, err := io.WriteString(w, "nixpkgs")
			return err
		},
	}

	cli, _, out := newCLI(t, mock, "info")
	require.NoError(t, cli.Execute(t.Context()))
	assert.Equal(t, "nixpkgs", out.String())
}

func TestCommands_Version(t *testing.T) {
	cli, _, out := newCLI(t, &mockApp{}, "version")

	require.NoError(t, cli.Execute(t.Context()))
	assert.Contains(t, out.String(), build.Version)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/devshell/internal/adapters/settings"
	"go.trai.ch/devshell/internal/adapters/telemetry"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type appMocks struct {
	loader *mocks.MockDescriptorLoader
	logger *mocks.MockLogger
}

func newProvider(t *testing.T) (ComponentProvider, *appMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &appMocks{
		loader: mocks.NewMockDescriptorLoader(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	m.logger.EXPECT().SetLevel(gomock.Any()).AnyTimes()

	application := app.New(
		m.loader,
		mocks.NewMockLockStore(ctrl),
		mocks.NewMockSourceLocker(ctrl),
		mocks.NewMockDependencyResolver(ctrl),
		mocks.NewMockEnvironmentFactory(ctrl),
		mocks.NewMockEnvironmentStore(ctrl),
		mocks.NewMockPackageManager(ctrl),
		mocks.NewMockExecutor(ctrl),
		telemetry.NewNoOp(),
		mocks.NewMockHasher(ctrl),
		mocks.NewMockWatcher(ctrl),
		m.logger,
	)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return app.NewComponents(application, m.logger, settings.NewWithPath(""), telemetry.NewNoOp()), func() {}, nil
	}
	return provider, m
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	provider, _ := newProvider(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 and logs when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	provider, m := newProvider(t)

	loadErr := zerr.With(zerr.Wrap(domain.ErrDescriptorNotFound, "no descriptor"), "path", ".")
	m.loader.EXPECT().Load(gomock.Any()).Return(nil, loadErr)
	m.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)
	})

	exitCode := run(context.Background(), []string{"hook"}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}

// TestRun_ExitCode verifies that the status of a failed command becomes the exit code.
func TestRun_ExitCode(t *testing.T) {
	provider, m := newProvider(t)

	failure := zerr.With(zerr.Wrap(domain.ErrActivationFailed, "step failed"), "exit_code", 7)
	m.loader.EXPECT().Load(gomock.Any()).Return(nil, failure)
	m.logger.EXPECT().Error(gomock.Any())

	exitCode := run(context.Background(), []string{"hook"}, new(bytes.Buffer), provider)
	assert.Equal(t, 7, exitCode)
}

// TestRun_Options verifies that options are applied to the app before the command runs.
func TestRun_Options(t *testing.T) {
	provider, _ := newProvider(t)

	applied := false
	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), provider, func(*app.App) {
		applied = true
	})
	assert.Equal(t, 0, exitCode)
	assert.True(t, applied)
}

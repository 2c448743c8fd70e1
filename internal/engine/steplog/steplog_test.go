package steplog_test

import (
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports/mocks"
	"go.trai.ch/devshell/internal/engine/steplog"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	mu     sync.Mutex
	levels []domain.LogLevel
	lines  []string
}

func (r *recorder) Log(level domain.LogLevel, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
	r.lines = append(r.lines, msg)
}

func (r *recorder) Debug(msg string)           { r.Log(domain.LogLevelDebug, msg) }
func (r *recorder) Info(msg string)            { r.Log(domain.LogLevelInfo, msg) }
func (r *recorder) Warn(msg string)            { r.Log(domain.LogLevelWarn, msg) }
func (r *recorder) Error(err error)            { r.Log(domain.LogLevelError, err.Error()) }
func (r *recorder) SetLevel(_ domain.LogLevel) {}
func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestStep_StartedAndFinished(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		step := steplog.New(rec, "resolving packages")

		require.NoError(t, step.Begin())
		time.Sleep(3 * time.Second)
		step.AddPostfix("(4 packages)")
		step.End(nil)

		assert.Equal(t, []string{
			"[STARTED    ] resolving packages",
			"[FINISHED   ] resolving packages (4 packages) [3s]",
		}, rec.snapshot())
	})
}

func TestStep_Exception(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		step := steplog.New(rec, "uv sync")

		require.NoError(t, step.Begin())
		time.Sleep(time.Second)
		step.End(zerr.Wrap(errors.New("exit status 1"), "activation command failed"))

		assert.Equal(t, []string{
			"[STARTED    ] uv sync",
			"[EXCEPTION  ] uv sync - [activation command failed] [1s]",
		}, rec.snapshot())
	})
}

func TestStep_StatusOnly(t *testing.T) {
	rec := &recorder{}
	step := steplog.New(rec, "lockfile up to date", steplog.StatusOnly())

	require.NoError(t, step.Begin())
	step.End(nil)

	assert.Equal(t, []string{"[STATUS     ] lockfile up to date"}, rec.snapshot())
}

func TestStep_Ping(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		step := steplog.New(rec, "building shell", steplog.WithPing(time.Minute))

		require.NoError(t, step.Begin())
		time.Sleep(150 * time.Second)
		synctest.Wait()
		step.End(nil)

		assert.Equal(t, []string{
			"[STARTED    ] building shell",
			"[IN PROGRESS] building shell [60s]",
			"[IN PROGRESS] building shell [120s]",
			"[FINISHED   ] building shell [150s]",
		}, rec.snapshot())
	})
}

func TestStep_DoubleBegin(t *testing.T) {
	step := steplog.New(&recorder{}, "twice")

	require.NoError(t, step.Begin())
	err := step.Begin()
	require.ErrorIs(t, err, domain.ErrStepRunning)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "twice", zErr.Metadata()["step"])
}

func TestStep_Level(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		log.EXPECT().Log(domain.LogLevelDebug, "[STARTED    ] probing"),
		log.EXPECT().Log(domain.LogLevelDebug, gomock.Any()),
	)

	err := steplog.Run(log, "probing", func(*steplog.Step) error { return nil }, steplog.WithLevel(domain.LogLevelDebug))
	require.NoError(t, err)
}

func TestRun_ReturnsError(t *testing.T) {
	rec := &recorder{}
	want := errors.New("boom")

	err := steplog.Run(rec, "failing", func(*steplog.Step) error { return want })

	require.ErrorIs(t, err, want)
	lines := rec.snapshot()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "[EXCEPTION  ] failing - [boom]")
}

func TestStatus(t *testing.T) {
	rec := &recorder{}

	steplog.Status(rec, domain.LogLevelNotice, "  3 scripts", "(lint, format, test)")

	assert.Equal(t, []string{"[STATUS     ] 3 scripts (lint, format, test)"}, rec.snapshot())
	assert.Equal(t, []domain.LogLevel{domain.LogLevelNotice}, rec.levels)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{300 * time.Second, "300s"},
		{301 * time.Second, "5m 1s"},
		{60 * time.Minute, "60m 0s"},
		{61*time.Minute + 5*time.Second, "1h 1m 5s"},
		{96 * time.Hour, "96h 0m 0s"},
		{97*time.Hour + 2*time.Minute, "4d 1h 2m 0s"},
		{1500 * time.Millisecond, "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, steplog.FormatElapsed(tt.in))
		})
	}
}

package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/ui/style"
)

func TestLevelColor(t *testing.T) {
	tests := []struct {
		level domain.LogLevel
		want  string
	}{
		{domain.LogLevelSpam, string(style.Slate)},
		{domain.LogLevelDebug, string(style.Grey)},
		{domain.LogLevelVerbose, string(style.Grey)},
		{domain.LogLevelInfo, string(style.Green)},
		{domain.LogLevelNotice, string(style.Iris)},
		{domain.LogLevelWarn, string(style.Yellow)},
		{domain.LogLevelSuccess, string(style.Teal)},
		{domain.LogLevelError, string(style.Red)},
		{domain.LogLevelCritical, string(style.Maroon)},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, string(style.LevelColor(tt.level)))
		})
	}
}

func TestLevelLabel(t *testing.T) {
	assert.Empty(t, style.LevelLabel(domain.LogLevelInfo))
	assert.Equal(t, "[WARNING]: ", style.LevelLabel(domain.LogLevelWarn))
	assert.Equal(t, "[ERROR]: ", style.LevelLabel(domain.LogLevelError))
	assert.Equal(t, "[CRITICAL]: ", style.LevelLabel(domain.LogLevelCritical))
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, style.Check, style.StatusIcon(domain.VertexStatusCompleted))
	assert.Equal(t, style.Cross, style.StatusIcon(domain.VertexStatusFailed))
	assert.Equal(t, style.Dot, style.StatusIcon(domain.VertexStatusCached))
	assert.Equal(t, style.Circle, style.StatusIcon(domain.VertexStatusSkipped))
}

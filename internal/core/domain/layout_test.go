package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/devshell/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "LockPathFor",
			got:      domain.LockPathFor(filepath.Join("proj", "devshell.yaml")),
			expected: filepath.Join("proj", "devshell.lock"),
		},
		{
			name:     "OverlayPathFor",
			got:      domain.OverlayPathFor(filepath.Join("proj", "devshell.yaml")),
			expected: filepath.Join("proj", "devshell.local.yaml"),
		},
		{
			name:     "OverlayPathFor without extension",
			got:      domain.OverlayPathFor("shell"),
			expected: "shell.local",
		},
		{
			name:     "NixHubCachePath",
			got:      domain.NixHubCachePath("cache"),
			expected: filepath.Join("cache", "nixhub"),
		},
		{
			name:     "EnvCachePath",
			got:      domain.EnvCachePath("cache"),
			expected: filepath.Join("cache", "environments"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("HOME", "/tmp/home")

	assert.Equal(t, domain.AppName, filepath.Base(domain.DefaultCacheDir()))
}

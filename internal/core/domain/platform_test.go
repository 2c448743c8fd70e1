package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestParsePlatform(t *testing.T) {
	for _, p := range domain.SupportedPlatforms() {
		got, err := domain.ParsePlatform(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	tests := []string{"", "x86_64-windows", "riscv64-linux", "X86_64-LINUX"}
	for _, input := range tests {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := domain.ParsePlatform(input)
			require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, input, zErr.Metadata()["platform"])
		})
	}
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goarch, goos string
		want         domain.Platform
		supported    bool
	}{
		{"amd64", "linux", domain.PlatformX86Linux, true},
		{"arm64", "linux", domain.PlatformARMLinux, true},
		{"amd64", "darwin", domain.PlatformX86Darwin, true},
		{"arm64", "darwin", domain.PlatformARMDarwin, true},
		{"riscv64", "linux", domain.Platform("riscv64-linux"), false},
		{"amd64", "windows", domain.Platform("x86_64-windows"), false},
	}

	for _, tt := range tests {
		t.Run(tt.goarch+"/"+tt.goos, func(t *testing.T) {
			got := domain.PlatformFor(tt.goarch, tt.goos)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.supported, got.IsSupported())
		})
	}
}

func TestSupportedPlatforms_ReturnsCopy(t *testing.T) {
	ps := domain.SupportedPlatforms()
	ps[0] = "mutated"

	assert.Equal(t, domain.PlatformX86Linux, domain.SupportedPlatforms()[0])
}

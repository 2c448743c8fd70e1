package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/fs"
	"go.trai.ch/devshell/internal/core/domain"
)

func descriptor() *domain.Descriptor {
	return &domain.Descriptor{
		Inputs: map[string]domain.SourceRef{
			"nixpkgs": {Name: "nixpkgs", URL: "github:NixOS/nixpkgs/nixos-unstable"},
			"utils": {
				Name:    "utils",
				URL:     "github:numtide/flake-utils",
				Follows: map[string]string{"nixpkgs": "nixpkgs"},
			},
		},
		Outputs: map[domain.Platform]domain.ShellSpec{
			domain.PlatformX86Linux: {Packages: []domain.PackageRef{{Attr: "uv"}}},
		},
	}
}

func TestHasher_Fingerprint(t *testing.T) {
	h := fs.NewHasher()
	base := h.Fingerprint(descriptor())

	assert.Len(t, base, 16)
	assert.Equal(t, base, h.Fingerprint(descriptor()), "fingerprint must be deterministic")

	t.Run("outputs do not contribute", func(t *testing.T) {
		d := descriptor()
		d.Outputs[domain.PlatformARMDarwin] = domain.ShellSpec{ShellHook: "echo hi"}
		d.Scripts = map[string][]string{"lint": {"ruff check"}}
		assert.Equal(t, base, h.Fingerprint(d))
	})

	t.Run("url changes the fingerprint", func(t *testing.T) {
		d := descriptor()
		d.Inputs["nixpkgs"] = domain.SourceRef{Name: "nixpkgs", URL: "github:NixOS/nixpkgs/nixos-24.11"}
		assert.NotEqual(t, base, h.Fingerprint(d))
	})

	t.Run("follows change the fingerprint", func(t *testing.T) {
		d := descriptor()
		utils := d.Inputs["utils"]
		utils.Follows = nil
		d.Inputs["utils"] = utils
		assert.NotEqual(t, base, h.Fingerprint(d))
	})

	t.Run("default source changes the fingerprint", func(t *testing.T) {
		d := descriptor()
		d.DefaultSource = "nixpkgs"
		assert.NotEqual(t, base, h.Fingerprint(d))
	})
}

func TestHasher_ComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devshell.yaml")
	content := []byte("inputs:\n  nixpkgs: github:NixOS/nixpkgs\n")
	require.NoError(t, os.WriteFile(path, content, domain.FilePerm))

	got, err := fs.NewHasher().ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, xxhash.Sum64(content), got)

	_, err = fs.NewHasher().ComputeFileHash(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

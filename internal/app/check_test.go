package app_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func otherPlatform() domain.Platform {
	if domain.CurrentPlatform() == domain.PlatformARMDarwin {
		return domain.PlatformX86Linux
	}
	return domain.PlatformARMDarwin
}

func TestApp_Check(t *testing.T) {
	f := newFixture(t)
	f.expectLocked(newDescriptor())
	f.manager.EXPECT().Probe(gomock.Any(), gomock.Any()).Return([]string{"go-1.24.0", "uv-0.7.2"}, nil)
	f.expectMaterialize()

	var out bytes.Buffer
	require.NoError(t, f.app.Check(t.Context(), app.CheckOptions{}, &out))

	assert.Contains(t, out.String(), domain.CurrentPlatform().String())
	assert.Contains(t, out.String(), "go-1.24.0 uv-0.7.2")
}

func TestApp_Check_Build(t *testing.T) {
	f := newFixture(t)
	f.expectLocked(newDescriptor())
	f.manager.EXPECT().Probe(gomock.Any(), gomock.Any()).Return([]string{"go-1.24.0", "uv-0.7.2"}, nil)
	f.manager.EXPECT().Build(gomock.Any(), gomock.Any()).Return([]string{"/nix/store/abc-devshell-check"}, nil)
	f.expectMaterialize()

	var out bytes.Buffer
	require.NoError(t, f.app.Check(t.Context(), app.CheckOptions{Build: true}, &out))
}

func TestApp_Check_All(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	desc.Outputs[otherPlatform()] = domain.ShellSpec{Packages: []domain.PackageRef{{Attr: "missing"}}}
	f.expectLocked(desc)

	f.manager.EXPECT().Probe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, plan *domain.ResolutionPlan) ([]string, error) {
			if plan.Platform != domain.CurrentPlatform() {
				return nil, zerr.Wrap(domain.ErrPackageResolveFailed, "attribute 'missing' missing")
			}
			return []string{"go-1.24.0", "uv-0.7.2"}, nil
		}).Times(2)
	f.expectMaterialize()

	var out bytes.Buffer
	err := f.app.Check(t.Context(), app.CheckOptions{All: true}, &out)
	require.ErrorIs(t, err, domain.ErrCheckFailed)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, []string{otherPlatform().String()}, zErr.Metadata()["platforms"])
	assert.Contains(t, out.String(), otherPlatform().String())
	assert.Contains(t, out.String(), "attribute 'missing' missing")
}

func TestApp_Info(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	desc.Description = "python tooling"
	desc.Inputs["utils"] = domain.SourceRef{
		Name:    "utils",
		URL:     "github:numtide/flake-utils",
		Follows: map[string]string{"nixpkgs": "nixpkgs"},
	}
	f.loader.EXPECT().Load("").Return(desc, nil)
	f.locks.EXPECT().Read(lockPath).Return(newLockfile(), nil)

	var out bytes.Buffer
	require.NoError(t, f.app.Info(t.Context(), app.Options{}, &out))

	text := out.String()
	assert.Contains(t, text, "python tooling")
	assert.Contains(t, text, nixpkgsPin)
	assert.Contains(t, text, "(not locked)")
	assert.Contains(t, text, "nixpkgs=nixpkgs")
	assert.Contains(t, text, "go@1.24 uv")
	assert.Contains(t, text, "ruff check; mypy .")
}

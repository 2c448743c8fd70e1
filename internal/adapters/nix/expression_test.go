package nix_test

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/nix"
	"go.trai.ch/devshell/internal/core/domain"
)

const (
	baseRef  = "github:NixOS/nixpkgs/aaa"
	goRef    = "github:NixOS/nixpkgs/bbb"
	utilsRef = "github:numtide/flake-utils/ccc"
)

func testPlan() *domain.ResolutionPlan {
	return &domain.ResolutionPlan{
		Platform: domain.PlatformX86Linux,
		Base:     "nixpkgs",
		Inputs: map[string]domain.PlanInput{
			"nixpkgs": {URL: baseRef},
			"flake-utils": {
				URL:     utilsRef,
				Follows: map[string]string{"nixpkgs": "nixpkgs"},
			},
		},
		Entries: []domain.PlanEntry{
			{Package: domain.PackageRef{Attr: "uv"}, Source: "nixpkgs", FlakeRef: baseRef, Attr: "uv"},
			{
				Package:  domain.PackageRef{Attr: "python313Packages.pip"},
				Source:   "nixpkgs",
				FlakeRef: baseRef,
				Attr:     "python313Packages.pip",
			},
			{Package: domain.PackageRef{Attr: "go", Version: "1.24"}, FlakeRef: goRef, Attr: "go_1_24"},
		},
	}
}

func TestFlakeSource(t *testing.T) {
	src, err := nix.FlakeSource(testPlan())
	require.NoError(t, err)

	goldie.New(t).Assert(t, "flake_source", []byte(src))
}

func TestFlakeSource_Follows(t *testing.T) {
	plan := testPlan()
	plan.Inputs["devenv"] = domain.PlanInput{
		URL:     "github:cachix/devenv/ddd",
		Follows: map[string]string{"nixpkgs": "nixpkgs", "flake-utils": "flake-utils"},
	}

	src, err := nix.FlakeSource(plan)
	require.NoError(t, err)

	assert.Contains(t, src, `"devenv".inputs."flake-utils".follows = "flake-utils";`)
	assert.Contains(t, src, `"devenv".inputs."nixpkgs".follows = "nixpkgs";`)
	assert.Contains(t, src, `"flake-utils".inputs."nixpkgs".follows = "nixpkgs";`)
	assert.Less(t,
		strings.Index(src, `"devenv".inputs."flake-utils"`), strings.Index(src, `"devenv".inputs."nixpkgs"`),
		"nested inputs are rendered in sorted order")
}

func TestFlakeSource_VersionedPackageOnDeclaredRevision(t *testing.T) {
	plan := testPlan()
	plan.Entries[2].FlakeRef = baseRef

	src, err := nix.FlakeSource(plan)
	require.NoError(t, err)

	assert.NotContains(t, src, "pinned_0")
	assert.Contains(t, src, `(pkgsOf inputs."nixpkgs")."go_1_24"`)
}

func TestFlakeSource_BaseDefaultsToFirstEntry(t *testing.T) {
	plan := testPlan()
	plan.Base = ""
	plan.Inputs = nil
	plan.Entries = plan.Entries[2:]

	src, err := nix.FlakeSource(plan)
	require.NoError(t, err)
	assert.Contains(t, src, `base = pkgsOf inputs."pinned_0";`)
	assert.Contains(t, src, `"pinned_0".url = "github:NixOS/nixpkgs/bbb";`)
}

func TestFlakeSource_Errors(t *testing.T) {
	t.Run("empty plan", func(t *testing.T) {
		_, err := nix.FlakeSource(&domain.ResolutionPlan{Platform: domain.PlatformX86Linux})
		require.ErrorIs(t, err, domain.ErrEnvironmentFailed)
	})

	t.Run("unknown source", func(t *testing.T) {
		plan := testPlan()
		plan.Entries[0].Source = "unstable"
		_, err := nix.FlakeSource(plan)
		require.ErrorIs(t, err, domain.ErrEnvironmentFailed)
	})
}

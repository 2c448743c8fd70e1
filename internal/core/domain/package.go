package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// NixPackageInfo represents the Nix-specific metadata for a resolved package
// on a particular system architecture.
type NixPackageInfo struct {
	// Owner is the GitHub repository owner (e.g., "NixOS").
	Owner InternedString `json:"owner"`

	// Repo is the GitHub repository name (e.g., "nixpkgs").
	Repo InternedString `json:"repo"`

	// Rev is the Git revision (commit SHA) pinning the exact version.
	Rev InternedString `json:"rev"`

	// Hash is the Nix hash (e.g., NAR hash) for content verification.
	Hash InternedString `json:"hash,omitzero"`

	// AttrPath is the Nix attribute path to the package (e.g., "go_1_24").
	AttrPath InternedString `json:"attrPath"`
}

// FlakeRef returns the flake reference of the repository revision holding the package.
func (i NixPackageInfo) FlakeRef() string {
	return "github:" + i.Owner.String() + "/" + i.Repo.String() + "/" + i.Rev.String()
}

// ResolvedPackage represents a fully resolved Nix package with multi-architecture support.
// It maps system architectures to their specific Nix package information.
type ResolvedPackage struct {
	// Name is the canonical package name (e.g., "go").
	Name InternedString `json:"name"`

	// Version is the resolved version string (e.g., "1.24.0").
	Version InternedString `json:"version"`

	// Systems maps system architecture strings (e.g., "aarch64-darwin", "x86_64-linux")
	// to their specific Nix package metadata.
	Systems map[string]NixPackageInfo `json:"systems"`
}

// GetInfoForSystem retrieves the Nix package information for the specified system architecture.
// Returns ErrUnsupportedArchitecture if the architecture is not present in the resolved package.
func (p *ResolvedPackage) GetInfoForSystem(systemArch string) (NixPackageInfo, error) {
	info, exists := p.Systems[systemArch]
	if !exists {
		err := zerr.With(zerr.Wrap(ErrUnsupportedArchitecture, "no build for platform"), "package", p.Name.String())
		err = zerr.With(err, "version", p.Version.String())
		err = zerr.With(err, "requested_arch", systemArch)
		return NixPackageInfo{}, err
	}
	return info, nil
}

// attrPattern accepts dotted Nix attribute paths such as "python313Packages.pip".
var attrPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'+-]*(\.[A-Za-z_][A-Za-z0-9_'+-]*)*$`)

// PackageRef is one entry of a shell's package list: `[source#]attr[@version]`.
type PackageRef struct {
	// Source is the input the package resolves against. Empty means the default source.
	Source string

	// Attr is the attribute path inside the source.
	Attr string

	// Version pins the package through the package search service when set.
	Version string
}

// ParsePackageRef parses the `[source#]attr[@version]` notation.
func ParsePackageRef(s string) (PackageRef, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return PackageRef{}, zerr.With(zerr.Wrap(ErrInvalidPackageRef, "empty package name"), "package", s)
	}

	var ref PackageRef
	rest := raw
	if src, attr, ok := strings.Cut(rest, "#"); ok {
		if src == "" {
			return PackageRef{}, zerr.With(zerr.Wrap(ErrInvalidPackageRef, "empty source before #"), "package", raw)
		}
		ref.Source = src
		rest = attr
	}
	if attr, version, ok := strings.Cut(rest, "@"); ok {
		if version == "" {
			return PackageRef{}, zerr.With(zerr.Wrap(ErrInvalidPackageRef, "empty version after @"), "package", raw)
		}
		ref.Version = version
		rest = attr
	}
	if !attrPattern.MatchString(rest) {
		return PackageRef{}, zerr.With(zerr.Wrap(ErrInvalidPackageRef, "invalid attribute path"), "package", raw)
	}
	ref.Attr = rest
	return ref, nil
}

// String renders the reference in the notation accepted by ParsePackageRef.
func (r PackageRef) String() string {
	var b strings.Builder
	if r.Source != "" {
		b.WriteString(r.Source)
		b.WriteByte('#')
	}
	b.WriteString(r.Attr)
	if r.Version != "" {
		b.WriteByte('@')
		b.WriteString(r.Version)
	}
	return b.String()
}

// Versioned reports whether the package must be resolved through the search service.
func (r PackageRef) Versioned() bool {
	return r.Version != ""
}

// LockKey is the key of a versioned package in the lock file.
func (r PackageRef) LockKey() string {
	return r.Attr + "@" + r.Version
}

// MarshalText implements encoding.TextMarshaler.
func (r PackageRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *PackageRef) UnmarshalText(text []byte) error {
	parsed, err := ParsePackageRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

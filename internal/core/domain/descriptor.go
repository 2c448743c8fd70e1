package domain

import (
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// DefaultSourceName is the input bare package names resolve against when the
// descriptor names no default and declares more than one input.
const DefaultSourceName = "nixpkgs"

// ShellSpec is the development shell declared for one platform.
type ShellSpec struct {
	// Packages is the set of packages made available in the shell.
	Packages []PackageRef

	// Env holds variables exported after the environment is materialized.
	Env map[string]string

	// ShellHook is the raw activation script.
	ShellHook string
}

// UniquePackages returns the package set with duplicates collapsed, sorted by notation.
func (s ShellSpec) UniquePackages() []PackageRef {
	seen := make(map[string]PackageRef, len(s.Packages))
	for _, p := range s.Packages {
		seen[p.String()] = p
	}
	keys := slices.Sorted(maps.Keys(seen))
	out := make([]PackageRef, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

// Activation parses the shell hook into its ordered command sequence.
func (s ShellSpec) Activation() (ActivationSequence, error) {
	return ParseActivation(s.ShellHook)
}

// Descriptor is the declarative description of a development environment.
type Descriptor struct {
	// Path is the file the descriptor was loaded from.
	Path string

	Description   string
	DefaultSource string
	Inputs        map[string]SourceRef
	Outputs       map[Platform]ShellSpec
	Scripts       map[string][]string
}

// SourceNames returns the declared input names in sorted order.
func (d *Descriptor) SourceNames() []string {
	return slices.Sorted(maps.Keys(d.Inputs))
}

// Platforms returns the declared platforms in sorted order.
func (d *Descriptor) Platforms() []Platform {
	return slices.Sorted(maps.Keys(d.Outputs))
}

// ScriptNames returns the declared script names in sorted order.
func (d *Descriptor) ScriptNames() []string {
	return slices.Sorted(maps.Keys(d.Scripts))
}

// Shell returns the shell declared for p.
// An unsupported platform fails with ErrUnsupportedPlatform; a supported one the
// descriptor does not declare fails with ErrPlatformNotDeclared.
func (d *Descriptor) Shell(p Platform) (ShellSpec, error) {
	if !p.IsSupported() {
		return ShellSpec{}, zerr.With(zerr.Wrap(ErrUnsupportedPlatform, "cannot select shell"), "platform", p.String())
	}
	spec, ok := d.Outputs[p]
	if !ok {
		err := zerr.With(zerr.Wrap(ErrPlatformNotDeclared, "cannot select shell"), "platform", p.String())
		return ShellSpec{}, zerr.With(err, "declared", platformNames(d.Platforms()))
	}
	return spec, nil
}

// DefaultInput returns the input bare package names resolve against.
func (d *Descriptor) DefaultInput() (string, error) {
	if d.DefaultSource != "" {
		if _, ok := d.Inputs[d.DefaultSource]; !ok {
			return "", zerr.With(zerr.Wrap(ErrUndeclaredSource, "invalid default source"), "source", d.DefaultSource)
		}
		return d.DefaultSource, nil
	}
	if _, ok := d.Inputs[DefaultSourceName]; ok {
		return DefaultSourceName, nil
	}
	if len(d.Inputs) == 1 {
		return d.SourceNames()[0], nil
	}
	return "", zerr.With(zerr.Wrap(ErrAmbiguousSource, "no default source"), "inputs", d.SourceNames())
}

// SourceFor returns the input a package resolves against.
func (d *Descriptor) SourceFor(ref PackageRef) (string, error) {
	if ref.Source == "" {
		return d.DefaultInput()
	}
	if _, ok := d.Inputs[ref.Source]; !ok {
		err := zerr.With(zerr.Wrap(ErrUndeclaredSource, "cannot resolve package source"), "source", ref.Source)
		return "", zerr.With(err, "package", ref.String())
	}
	return ref.Source, nil
}

func platformNames(ps []Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

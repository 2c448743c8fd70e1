package domain

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsEnvName reports whether key can be exported as a shell variable.
func IsEnvName(key string) bool {
	return envNamePattern.MatchString(key)
}

// PlanEntry is a package bound to the exact source revision it is taken from.
type PlanEntry struct {
	Package PackageRef

	// Source is the input name the package resolves against.
	Source string

	// FlakeRef is the pinned reference the package is evaluated from.
	FlakeRef string

	// Attr is the attribute path inside FlakeRef.
	Attr string
}

// PlanInput is a pinned source of a plan and the nested inputs it shares with other sources.
type PlanInput struct {
	URL string

	// Follows maps a nested input name to the plan input it is replaced with.
	Follows map[string]string
}

// String renders the input as its URL followed by its sorted follows rules.
func (in PlanInput) String() string {
	nested := make([]string, 0, len(in.Follows))
	for name := range in.Follows {
		nested = append(nested, name)
	}
	slices.Sort(nested)

	var b strings.Builder
	b.WriteString(in.URL)
	for _, name := range nested {
		b.WriteString(" " + name + "=" + in.Follows[name])
	}
	return b.String()
}

// ResolutionPlan is the fully pinned package set of one shell.
type ResolutionPlan struct {
	Platform Platform

	// Base names the input whose mkShell assembles the shell.
	Base string

	// Inputs holds every declared source, keyed by input name.
	Inputs  map[string]PlanInput
	Entries []PlanEntry
}

// InputNames returns the names of the plan inputs in sorted order.
func (p *ResolutionPlan) InputNames() []string {
	names := make([]string, 0, len(p.Inputs))
	for name := range p.Inputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Fingerprint returns the inputs the environment ID is derived from.
func (p *ResolutionPlan) Fingerprint(env map[string]string) map[string]string {
	fp := make(map[string]string, len(p.Inputs)+len(p.Entries)+len(env)+2)
	fp["platform"] = p.Platform.String()
	if p.Base != "" {
		fp["base"] = p.Base
	}
	for name, in := range p.Inputs {
		fp["input:"+name] = in.String()
	}
	for _, e := range p.Entries {
		fp["pkg:"+e.Package.String()] = e.FlakeRef + "#" + e.Attr
	}
	for k, v := range env {
		fp["env:"+k] = v
	}
	return fp
}

// EnvRecord is a materialized environment as stored in the cache.
type EnvRecord struct {
	ID        string    `json:"id"`
	Platform  Platform  `json:"platform"`
	Vars      []string  `json:"vars"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Environment is the result of evaluating a descriptor for one platform.
type Environment struct {
	ID         string
	Platform   Platform
	Vars       []string
	Activation ActivationSequence

	// Cached reports whether the variables came from the environment cache.
	Cached bool
}

// Lookup returns the value of key in the environment.
func (e *Environment) Lookup(key string) (string, bool) {
	prefix := key + "="
	for _, kv := range e.Vars {
		if v, ok := strings.CutPrefix(kv, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// MergeVars overlays overrides onto vars and returns the result sorted by key.
func MergeVars(vars []string, overrides map[string]string) []string {
	merged := make(map[string]string, len(vars)+len(overrides))
	for _, kv := range vars {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

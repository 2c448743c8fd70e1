package nix

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

// pinnedPrefix names the inputs generated for versioned packages.
const pinnedPrefix = "pinned_"

// flake binds every package of a plan to an input of the generated flake.
type flake struct {
	plan   *domain.ResolutionPlan
	inputs map[string]domain.PlanInput
	names  []string
	source []string
	base   string
}

func newFlake(plan *domain.ResolutionPlan) (*flake, error) {
	f := &flake{
		plan:   plan,
		inputs: make(map[string]domain.PlanInput, len(plan.Inputs)),
		source: make([]string, len(plan.Entries)),
	}
	for name, in := range plan.Inputs {
		f.inputs[name] = in
	}

	byURL := make(map[string]string, len(plan.Inputs))
	for _, name := range plan.InputNames() {
		if _, seen := byURL[plan.Inputs[name].URL]; !seen {
			byURL[plan.Inputs[name].URL] = name
		}
	}

	// Versioned packages come from revisions outside the declared inputs.
	var pinned []string
	for _, e := range plan.Entries {
		if e.Source == "" {
			if _, ok := byURL[e.FlakeRef]; !ok {
				pinned = append(pinned, e.FlakeRef)
			}
		}
	}
	slices.Sort(pinned)
	for i, ref := range slices.Compact(pinned) {
		name := fmt.Sprintf("%s%d", pinnedPrefix, i)
		f.inputs[name] = domain.PlanInput{URL: ref}
		byURL[ref] = name
	}

	for i, e := range plan.Entries {
		name := e.Source
		if name == "" {
			name = byURL[e.FlakeRef]
		}
		if _, ok := f.inputs[name]; !ok {
			err := zerr.With(zerr.Wrap(domain.ErrEnvironmentFailed, "package source is not a plan input"),
				"package", e.Package.String())
			return nil, zerr.With(err, "source", name)
		}
		f.source[i] = name
	}

	f.base = plan.Base
	if f.base == "" && len(f.source) > 0 {
		f.base = f.source[0]
	}
	if _, ok := f.inputs[f.base]; !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrEnvironmentFailed, "plan has no pinned sources"),
			"platform", plan.Platform.String())
	}

	for name := range f.inputs {
		f.names = append(f.names, name)
	}
	slices.Sort(f.names)
	return f, nil
}

// writeInputs renders the inputs block, applying every follows rule to its nested input.
func (f *flake) writeInputs(b *strings.Builder) {
	b.WriteString("  inputs = {\n")
	for _, name := range f.names {
		in := f.inputs[name]
		fmt.Fprintf(b, "    %q.url = %q;\n", name, in.URL)

		nested := make([]string, 0, len(in.Follows))
		for n := range in.Follows {
			nested = append(nested, n)
		}
		slices.Sort(nested)
		for _, n := range nested {
			fmt.Fprintf(b, "    %q.inputs.%q.follows = %q;\n", name, n, in.Follows[n])
		}
	}
	b.WriteString("  };\n")
}

// writePackages renders the package list, one element per line, in plan order.
func (f *flake) writePackages(b *strings.Builder) {
	b.WriteString("      packages = [\n")
	for i, e := range f.plan.Entries {
		set := fmt.Sprintf("(pkgsOf inputs.%q)", f.source[i])
		b.WriteString("        " + attrSelect(set, e.Attr) + "\n")
	}
	b.WriteString("      ];\n")
}

// attrSelect quotes every segment of a dotted attribute path.
func attrSelect(set, attr string) string {
	segments := strings.Split(attr, ".")
	quoted := make([]string, 0, len(segments)+1)
	quoted = append(quoted, set)
	for _, s := range segments {
		quoted = append(quoted, fmt.Sprintf("%q", s))
	}
	return strings.Join(quoted, ".")
}

// FlakeSource renders the flake.nix materializing the plan. The shell is exposed as
// devShells.<system>.default, the joined packages as packages.<system>.default and
// the derivation names as names.<system>.
func FlakeSource(plan *domain.ResolutionPlan) (string, error) {
	f, err := newFlake(plan)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  description = %q;\n\n", "devshell "+plan.Platform.String())
	f.writeInputs(&b)
	b.WriteString("\n  outputs = inputs:\n")
	b.WriteString("    let\n")
	fmt.Fprintf(&b, "      system = %q;\n", plan.Platform.String())
	b.WriteString("      pkgsOf = src: src.legacyPackages.${system} or src.packages.${system};\n")
	fmt.Fprintf(&b, "      base = pkgsOf inputs.%q;\n", f.base)
	f.writePackages(&b)
	b.WriteString("    in\n")
	b.WriteString("    {\n")
	b.WriteString("      devShells.${system}.default = base.mkShell { inherit packages; };\n")
	b.WriteString("      packages.${system}.default = base.symlinkJoin {\n")
	b.WriteString("        name = \"devshell-check\";\n")
	b.WriteString("        paths = packages;\n")
	b.WriteString("      };\n")
	b.WriteString("      names.${system} = map (p: p.name) packages;\n")
	b.WriteString("    };\n")
	b.WriteString("}\n")
	return b.String(), nil
}

// shellAttr selects the dev shell output of FlakeSource.
func shellAttr(p domain.Platform) string { return "devShells." + p.String() + ".default" }

func buildAttr(p domain.Platform) string { return "packages." + p.String() + ".default" }

func namesAttr(p domain.Platform) string { return "names." + p.String() }

// sortedAttrs lists the attribute paths of the plan, for error metadata.
func sortedAttrs(plan *domain.ResolutionPlan) []string {
	attrs := make([]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		attrs = append(attrs, e.Package.String())
	}
	slices.Sort(attrs)
	return attrs
}

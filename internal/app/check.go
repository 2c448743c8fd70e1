package app

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/engine/steplog"
	"go.trai.ch/devshell/internal/ui/style"
	"go.trai.ch/zerr"
)

// CheckOptions configure the check operation.
type CheckOptions struct {
	Options
	// All checks every declared platform instead of only the selected one.
	All bool
	// Build realizes the packages of the current platform instead of only evaluating them.
	Build bool
}

type checkResult struct {
	platform domain.Platform
	status   domain.VertexStatus
	packages int
	detail   string
}

// Check verifies that the shells of the descriptor evaluate. Every package of a checked
// platform must exist in its pinned source; the current platform is also materialized.
func (a *App) Check(ctx context.Context, opts CheckOptions, w io.Writer) error {
	desc, err := a.loader.Load(opts.File)
	if err != nil {
		return err
	}

	platforms := desc.Platforms()
	if !opts.All {
		p, _, err := selectPlatform(desc, opts.System)
		if err != nil {
			return err
		}
		platforms = []domain.Platform{p}
	}

	lf, _, err := a.syncLock(ctx, desc, opts.Options)
	if err != nil {
		return err
	}

	results := make([]checkResult, 0, len(platforms))
	var failed []string
	for _, p := range platforms {
		res := a.checkPlatform(ctx, desc, lf, p, opts.Build)
		if res.status == domain.VertexStatusFailed {
			failed = append(failed, p.String())
		}
		results = append(results, res)
	}

	renderCheck(w, results)

	if len(failed) > 0 {
		return zerr.With(zerr.Wrap(domain.ErrCheckFailed, "some shells do not evaluate"), "platforms", failed)
	}
	steplog.Status(a.logger, domain.LogLevelSuccess, "all shells evaluate")
	return nil
}

func (a *App) checkPlatform(
	ctx context.Context,
	desc *domain.Descriptor,
	lf *domain.Lockfile,
	p domain.Platform,
	build bool,
) checkResult {
	res := checkResult{platform: p, status: domain.VertexStatusCompleted}
	fail := func(err error) checkResult {
		a.logger.Error(err)
		res.status = domain.VertexStatusFailed
		res.detail = err.Error()
		return res
	}

	spec := desc.Outputs[p]
	plan, err := buildPlan(desc, lf, p, spec)
	if err != nil {
		return fail(err)
	}
	res.packages = len(plan.Entries)

	vctx, vertex := a.telemetry.Record(ctx, "check "+p.String())
	names, err := a.manager.Probe(vctx, plan)
	vertex.Complete(err)
	if err != nil {
		return fail(err)
	}
	res.detail = strings.Join(names, " ")

	if p != domain.CurrentPlatform() {
		return res
	}

	if build {
		bctx, vertex := a.telemetry.Record(ctx, "build "+p.String())
		_, err := a.manager.Build(bctx, plan)
		vertex.Complete(err)
		if err != nil {
			return fail(err)
		}
	}

	env, err := a.materialize(ctx, plan, spec)
	if err != nil {
		return fail(err)
	}
	if env.Cached {
		res.status = domain.VertexStatusCached
	}
	return res
}

func renderCheck(w io.Writer, results []checkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Platform", "Packages", "Details"})
	for _, r := range results {
		t.AppendRow(table.Row{style.StatusIcon(r.status), r.platform.String(), r.packages, r.detail})
	}
	t.Render()
}

// Info describes the descriptor and the pins recorded in its lock file. It never
// contacts the network.
func (a *App) Info(_ context.Context, opts Options, w io.Writer) error {
	desc, err := a.loader.Load(opts.File)
	if err != nil {
		return err
	}

	lf, err := a.locks.Read(domain.LockPathFor(desc.Path))
	if err != nil {
		return err
	}
	if lf == nil {
		lf = domain.NewLockfile()
	}

	if desc.Description != "" {
		_, _ = fmt.Fprintln(w, desc.Description)
	}
	_, _ = fmt.Fprintln(w, desc.Path)

	inputs := table.NewWriter()
	inputs.SetOutputMirror(w)
	inputs.SetStyle(table.StyleLight)
	inputs.AppendHeader(table.Row{"Input", "URL", "Locked", "Follows"})
	for _, name := range desc.SourceNames() {
		ref := desc.Inputs[name]
		locked := "(not locked)"
		if l, ok := lf.Sources[name]; ok && l.Matches(ref) {
			locked = l.LockedURL
		}
		inputs.AppendRow(table.Row{name, ref.URL, locked, formatFollows(ref.Follows)})
	}
	inputs.Render()

	outputs := table.NewWriter()
	outputs.SetOutputMirror(w)
	outputs.SetStyle(table.StyleLight)
	outputs.AppendHeader(table.Row{"Platform", "Packages", "Env", "Activation"})
	for _, p := range desc.Platforms() {
		spec := desc.Outputs[p]
		seq, err := spec.Activation()
		if err != nil {
			return zerr.With(err, "platform", p.String())
		}
		pkgs := spec.UniquePackages()
		names := make([]string, len(pkgs))
		for i, pkg := range pkgs {
			names[i] = pkg.String()
		}
		outputs.AppendRow(table.Row{
			p.String(),
			strings.Join(names, " "),
			strings.Join(slices.Sorted(maps.Keys(spec.Env)), " "),
			len(seq),
		})
	}
	outputs.Render()

	if len(desc.Scripts) == 0 {
		return nil
	}
	scripts := table.NewWriter()
	scripts.SetOutputMirror(w)
	scripts.SetStyle(table.StyleLight)
	scripts.AppendHeader(table.Row{"Script", "Commands"})
	for _, name := range desc.ScriptNames() {
		scripts.AppendRow(table.Row{name, strings.Join(desc.Scripts[name], "; ")})
	}
	scripts.Render()
	return nil
}

func formatFollows(follows map[string]string) string {
	parts := make([]string, 0, len(follows))
	for _, k := range slices.Sorted(maps.Keys(follows)) {
		parts = append(parts, k+"="+follows[k])
	}
	return strings.Join(parts, " ")
}

package nix

import (
	"context"
	"encoding/json"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageManager = (*Manager)(nil)

// Manager implements ports.PackageManager using the Nix CLI.
type Manager struct {
	run Runner
}

// NewManager creates a new PackageManager backed by the nix binary.
func NewManager() *Manager {
	return NewManagerWithRunner(ExecRunner)
}

// NewManagerWithRunner creates a Manager with a custom runner.
func NewManagerWithRunner(run Runner) *Manager {
	return &Manager{run: run}
}

// Probe evaluates every package of the plan and returns their derivation names, in plan order.
func (m *Manager) Probe(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error) {
	src, err := FlakeSource(plan)
	if err != nil {
		return nil, err
	}

	output, err := runFlake(ctx, m.run, src, namesAttr(plan.Platform), "eval", "--json")
	if err != nil {
		return nil, managerError("nix eval failed", err, plan)
	}

	var names []string
	if err := json.Unmarshal(output, &names); err != nil {
		return nil, managerError("failed to parse nix eval JSON output", err, plan)
	}
	return names, nil
}

// Build realizes every package of the plan and returns the store paths produced.
func (m *Manager) Build(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error) {
	src, err := FlakeSource(plan)
	if err != nil {
		return nil, err
	}

	output, err := runFlake(ctx, m.run, src, buildAttr(plan.Platform), "build", "--json", "--no-link")
	if err != nil {
		return nil, managerError("nix build failed", err, plan)
	}

	return parseBuildResults(output, plan)
}

func parseBuildResults(output []byte, plan *domain.ResolutionPlan) ([]string, error) {
	var results buildResults
	if err := json.Unmarshal(output, &results); err != nil {
		return nil, managerError("failed to parse nix build JSON output", err, plan)
	}

	if len(results) == 0 {
		return nil, managerError("empty build results from nix build", nil, plan)
	}

	paths := make([]string, 0, len(results))
	for _, r := range results {
		storePath, ok := r.Outputs["out"]
		if !ok || storePath == "" {
			outErr := managerError("no 'out' output found in build results", nil, plan)
			return nil, zerr.With(outErr, "drv_path", r.DrvPath)
		}
		paths = append(paths, storePath)
	}
	return paths, nil
}

func managerError(msg string, cause error, plan *domain.ResolutionPlan) error {
	mErr := zerr.With(zerr.Wrap(domain.ErrPackageResolveFailed, msg), "platform", plan.Platform.String())
	mErr = zerr.With(mErr, "packages", sortedAttrs(plan))
	if cause != nil {
		mErr = zerr.With(mErr, "reason", cause.Error())
		if stderr := metadataString(cause, "stderr"); stderr != "" {
			mErr = zerr.With(mErr, "stderr", stderr)
		}
	}
	return mErr
}

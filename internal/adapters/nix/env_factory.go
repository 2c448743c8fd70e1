package nix

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.EnvironmentFactory = (*EnvFactory)(nil)

// EnvFactory implements ports.EnvironmentFactory using `nix print-dev-env`.
type EnvFactory struct {
	run   Runner
	log   ports.Logger
	group singleflight.Group
}

// NewEnvFactory creates an EnvFactory running the nix binary.
func NewEnvFactory(log ports.Logger) *EnvFactory {
	return NewEnvFactoryWithRunner(ExecRunner, log)
}

// NewEnvFactoryWithRunner creates an EnvFactory with a custom runner.
func NewEnvFactoryWithRunner(run Runner, log ports.Logger) *EnvFactory {
	return &EnvFactory{run: run, log: log}
}

// GetEnvironment materializes the shell of the plan and returns its exported variables
// as sorted "KEY=VALUE" strings. Concurrent calls for the same plan share one evaluation.
func (e *EnvFactory) GetEnvironment(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error) {
	envID := domain.GenerateEnvID(plan.Fingerprint(nil))

	result, err, _ := e.group.Do(envID, func() (any, error) {
		return e.materialize(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	env, ok := result.([]string)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrEnvironmentFailed, "unexpected result type"), "env_id", envID)
	}
	return slices.Clone(env), nil
}

func (e *EnvFactory) materialize(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error) {
	src, err := FlakeSource(plan)
	if err != nil {
		return nil, err
	}
	e.log.Debug("materializing shell for " + plan.Platform.String())

	output, err := runFlake(ctx, e.run, src, shellAttr(plan.Platform), "print-dev-env", "--json")
	if err != nil {
		envErr := zerr.With(zerr.Wrap(domain.ErrEnvironmentFailed, "nix print-dev-env failed"),
			"platform", plan.Platform.String())
		envErr = zerr.With(envErr, "packages", sortedAttrs(plan))
		if stderr := metadataString(err, "stderr"); stderr != "" {
			envErr = zerr.With(envErr, "stderr", stderr)
		}
		return nil, envErr
	}

	env, err := ParseNixDevEnv(output)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrEnvironmentFailed, err.Error()), "platform", plan.Platform.String())
	}
	return env, nil
}

// nixDevEnvOutput represents the JSON structure from `nix print-dev-env --json`.
type nixDevEnvOutput struct {
	Variables map[string]nixVariable `json:"variables"`
}

type nixVariable struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// ParseNixDevEnv parses the JSON output from nix print-dev-env and extracts the exported variables.
func ParseNixDevEnv(jsonData []byte) ([]string, error) {
	var output nixDevEnvOutput
	if err := json.Unmarshal(jsonData, &output); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal nix output")
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if variable.Type != "exported" || !ShouldIncludeVar(key) {
			continue
		}

		var valueStr string
		switch v := variable.Value.(type) {
		case string:
			valueStr = v
		case []any:
			parts := make([]string, len(v))
			for i, part := range v {
				if s, ok := part.(string); ok {
					parts[i] = s
				}
			}
			valueStr = strings.Join(parts, ":")
		default:
			continue
		}

		env = append(env, key+"="+valueStr)
	}

	slices.Sort(env)
	return env, nil
}

// excludedVars belong to the interactive session or the builder sandbox, never to the shell.
var excludedVars = map[string]struct{}{
	"TERM": {}, "SHELL": {}, "EDITOR": {}, "VISUAL": {}, "PAGER": {}, "LESS": {},
	"HOME": {}, "USER": {}, "LOGNAME": {}, "PS1": {}, "PS2": {}, "SHLVL": {},
	"PWD": {}, "OLDPWD": {}, "_": {},
	"TMPDIR": {}, "TEMP": {}, "TMP": {}, "TEMPDIR": {},
	"NIX_BUILD_TOP": {}, "NIX_BUILD_CORES": {}, "NIX_LOG_FD": {},
}

// ShouldIncludeVar determines if an exported variable is carried into the environment.
func ShouldIncludeVar(key string) bool {
	_, excluded := excludedVars[key]
	return !excluded
}

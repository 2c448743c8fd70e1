// Package config provides the environment descriptor loader for devshell.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.DescriptorLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the descriptor at path, merges its local overlay and validates the result.
// A directory path loads the default descriptor inside it. A bare file name that does
// not exist in the working directory is searched for in the parent directories.
func (l *Loader) Load(path string) (*domain.Descriptor, error) {
	descriptorPath, err := findDescriptor(path)
	if err != nil {
		return nil, err
	}

	doc, err := readYAMLMap(descriptorPath)
	if err != nil {
		return nil, err
	}

	overlayPath := domain.OverlayPathFor(descriptorPath)
	if _, statErr := os.Stat(overlayPath); statErr == nil {
		overlay, err := readYAMLMap(overlayPath)
		if err != nil {
			return nil, err
		}
		l.Logger.Debug(fmt.Sprintf("applying overlay %s", overlayPath))
		doc = mergeMaps(doc, overlay)
	}

	file, err := decodeDescriptor(doc)
	if err != nil {
		return nil, zerr.With(err, "file", descriptorPath)
	}

	desc, err := buildDescriptor(file)
	if err != nil {
		return nil, zerr.With(err, "file", descriptorPath)
	}
	desc.Path = descriptorPath

	if file.Description != "" {
		l.Logger.Debug(fmt.Sprintf("loaded %q from %s", file.Description, descriptorPath))
	}
	return desc, nil
}

func findDescriptor(path string) (string, error) {
	if path == "" {
		path = domain.DescriptorFileName
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return findDescriptor(filepath.Join(path, domain.DescriptorFileName))
	case err == nil:
		return filepath.Abs(path)
	case !errors.Is(err, fs.ErrNotExist):
		return "", zerr.With(zerr.Wrap(err, "failed to stat descriptor"), "file", path)
	}

	if filepath.Base(path) != path {
		return "", zerr.With(zerr.Wrap(domain.ErrDescriptorNotFound, "no such file"), "file", path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorNotFound, "not found in any parent directory"),
		"file", path), "cwd", cwd)
}

func readYAMLMap(path string) (map[string]any, error) {
	//nolint:gosec // path is provided by user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read descriptor"), "file", path)
	}

	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidDescriptor, err.Error()), "file", path)
	}
	return doc, nil
}

// mergeMaps merges overlay into base recursively. Nested maps are merged,
// any other value in overlay replaces the value in base.
func mergeMaps(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		baseMap, baseOK := out[k].(map[string]any)
		overlayMap, overlayOK := v.(map[string]any)
		if baseOK && overlayOK {
			out[k] = mergeMaps(baseMap, overlayMap)
			continue
		}
		out[k] = v
	}
	return out
}

func decodeDescriptor(doc map[string]any) (*DescriptorFile, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode merged descriptor")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file DescriptorFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(domain.ErrInvalidDescriptor, err.Error())
	}
	return &file, nil
}

func buildDescriptor(file *DescriptorFile) (*domain.Descriptor, error) {
	desc := &domain.Descriptor{
		Description:   file.Description,
		DefaultSource: file.DefaultSource,
		Inputs:        make(map[string]domain.SourceRef, len(file.Inputs)),
		Outputs:       make(map[domain.Platform]domain.ShellSpec, len(file.Outputs)),
		Scripts:       make(map[string][]string, len(file.Scripts)),
	}

	if err := buildInputs(desc, file.Inputs); err != nil {
		return nil, err
	}

	if desc.DefaultSource != "" {
		if _, ok := desc.Inputs[desc.DefaultSource]; !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUndeclaredSource, "default_source is not an input"),
				"default_source", desc.DefaultSource)
		}
	}

	if err := buildOutputs(desc, file.Outputs); err != nil {
		return nil, err
	}

	for name, cmds := range file.Scripts {
		if err := validateScript(name, cmds); err != nil {
			return nil, err
		}
		desc.Scripts[name] = []string(cmds)
	}

	return desc, nil
}

func buildInputs(desc *domain.Descriptor, inputs map[string]InputDTO) error {
	if len(inputs) == 0 {
		return zerr.Wrap(domain.ErrNoInputs, "at least one input is required")
	}

	for name, dto := range inputs {
		if strings.TrimSpace(dto.URL) == "" {
			return zerr.With(zerr.Wrap(domain.ErrMissingSourceURL, "input has no url"), "input", name)
		}
		desc.Inputs[name] = domain.SourceRef{
			Name:    name,
			URL:     strings.TrimSpace(dto.URL),
			Follows: dto.Follows,
		}
	}

	for name, dto := range inputs {
		for nested, target := range dto.Follows {
			_, declared := inputs[target]
			if declared && target != name {
				continue
			}
			err := zerr.With(zerr.Wrap(domain.ErrInvalidFollows, "follows must name another input"), "input", name)
			err = zerr.With(err, "nested_input", nested)
			return zerr.With(err, "follows", target)
		}
	}
	return nil
}

func buildOutputs(desc *domain.Descriptor, outputs map[string]OutputDTO) error {
	if len(outputs) == 0 {
		return zerr.Wrap(domain.ErrNoOutputs, "at least one platform shell is required")
	}

	for key, dto := range outputs {
		platform, err := domain.ParsePlatform(key)
		if err != nil {
			return zerr.With(err, "output", key)
		}

		for _, name := range slices.Sorted(maps.Keys(dto.Env)) {
			if !domain.IsEnvName(name) {
				envErr := zerr.With(zerr.Wrap(domain.ErrInvalidEnvVar, "env keys must be shell variable names"),
					"platform", key)
				return zerr.With(envErr, "key", name)
			}
		}

		spec := domain.ShellSpec{
			Packages:  make([]domain.PackageRef, 0, len(dto.Packages)),
			Env:       dto.Env,
			ShellHook: dto.ShellHook,
		}
		if _, err := spec.Activation(); err != nil {
			return zerr.With(err, "platform", key)
		}
		for _, raw := range dto.Packages {
			ref, err := domain.ParsePackageRef(raw)
			if err != nil {
				return zerr.With(err, "platform", key)
			}
			spec.Packages = append(spec.Packages, ref)
		}
		desc.Outputs[platform] = spec

		for _, ref := range spec.Packages {
			if _, err := desc.SourceFor(ref); err != nil {
				return zerr.With(err, "platform", key)
			}
		}
	}
	return nil
}

func validateScript(name string, cmds ScriptDTO) error {
	for _, cmd := range cmds {
		if strings.TrimSpace(cmd) != "" {
			return nil
		}
	}
	return zerr.With(zerr.Wrap(domain.ErrEmptyScript, "script has no non-blank command"), "script", name)
}

var _ ports.DescriptorLoader = (*Loader)(nil)

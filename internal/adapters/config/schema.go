package config

import (
	"fmt"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DescriptorFile represents the structure of the devshell.yaml descriptor.
type DescriptorFile struct {
	Description   string               `yaml:"description"`
	DefaultSource string               `yaml:"default_source"`
	Inputs        map[string]InputDTO  `yaml:"inputs"`
	Outputs       map[string]OutputDTO `yaml:"outputs"`
	Scripts       map[string]ScriptDTO `yaml:"scripts"`
}

// InputDTO represents an upstream source. A plain string is shorthand for its url.
type InputDTO struct {
	URL     string            `yaml:"url"`
	Follows map[string]string `yaml:"follows"`
}

// inputFields are the keys accepted in the mapping form of an input.
var inputFields = map[string]struct{}{"url": {}, "follows": {}}

// UnmarshalYAML accepts both the mapping form and the url shorthand.
// Unknown keys in the mapping form are rejected.
func (i *InputDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		i.URL = node.Value
		return nil
	}
	if node.Kind == yaml.MappingNode {
		for k := 0; k+1 < len(node.Content); k += 2 {
			key := node.Content[k]
			if _, ok := inputFields[key.Value]; !ok {
				return zerr.New(fmt.Sprintf("line %d: field %s not found in input", key.Line, key.Value))
			}
		}
	}
	type plain InputDTO
	return node.Decode((*plain)(i))
}

// OutputDTO represents the shell declared for one platform.
type OutputDTO struct {
	Packages  []string          `yaml:"packages"`
	Env       map[string]string `yaml:"env"`
	ShellHook string            `yaml:"shellHook"`
}

// ScriptDTO is a script body: one command or a list of commands.
type ScriptDTO []string

// UnmarshalYAML accepts a single command string as a one-element list.
func (s *ScriptDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = ScriptDTO{node.Value}
		return nil
	}
	var cmds []string
	if err := node.Decode(&cmds); err != nil {
		return err
	}
	*s = cmds
	return nil
}

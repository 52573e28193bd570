package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadInstances reads an instances YAML file, unmarshals it, and validates.
func LoadInstances(filename string) (*InstancesConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading instances file: %w", err)
	}

	var cfg InstancesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing instances file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating instances file: %w", err)
	}

	return &cfg, nil
}

// Validate checks the instances configuration for errors.
func (c *InstancesConfig) Validate() error {
	if len(c.Instances) == 0 {
		return fmt.Errorf("instances list is empty")
	}

	names := make(map[string]bool)
	outputs := make(map[string]bool)

	for i, inst := range c.Instances {
		if inst.Name == "" {
			return fmt.Errorf("instance %d: name is required", i)
		}
		if inst.Output == "" {
			return fmt.Errorf("instance %q: output is required", inst.Name)
		}
		if escapesRoot(inst.Output) {
			return fmt.Errorf("instance %q: output %q must stay within the output directory", inst.Name, inst.Output)
		}
		if names[inst.Name] {
			return fmt.Errorf("instance %q: duplicate name", inst.Name)
		}
		names[inst.Name] = true

		output := filepath.Clean(inst.Output)
		if outputs[output] {
			return fmt.Errorf("instance %q: duplicate output path %q", inst.Name, inst.Output)
		}
		outputs[output] = true
	}

	return nil
}

func escapesRoot(rel string) bool {
	if filepath.IsAbs(rel) {
		return true
	}
	clean := filepath.ToSlash(filepath.Clean(rel))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

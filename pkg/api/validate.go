package api

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

var validPluginTypes = map[string]bool{
	PluginTypeTemplate:    true,
	PluginTypeGenerate:    true,
	PluginTypeFrontmatter: true,
	PluginTypeSplit:       true,
	PluginTypeRemove:      true,
}

var validSplitStrategies = map[string]bool{
	SplitByKind:     true,
	SplitByResource: true,
	SplitByGroup:    true,
	SplitByKindDir:  true,
	SplitByCustom:   true,
}

// Validate checks the pipeline configuration for errors.
func (p *Pipeline) Validate() error {
	if len(p.Plugins) == 0 {
		return fmt.Errorf("pipeline has no plugins")
	}

	names := make(map[string]int)

	for i, plugin := range p.Plugins {
		if plugin.Name == "" {
			return fmt.Errorf("plugin %d: name is required", i)
		}
		if prev, exists := names[plugin.Name]; exists {
			return fmt.Errorf("plugin %d: duplicate plugin name %q (first defined at plugin %d)", i, plugin.Name, prev)
		}
		names[plugin.Name] = i

		if !validPluginTypes[plugin.Type] {
			return fmt.Errorf("plugin %q: unknown type %q", plugin.Name, plugin.Type)
		}

		if err := validatePluginConfig(plugin); err != nil {
			return fmt.Errorf("plugin %q: %w", plugin.Name, err)
		}
	}

	return nil
}

func validatePluginConfig(plugin PluginConfig) error {
	switch plugin.Type {
	case PluginTypeTemplate:
		if plugin.Template == nil {
			return fmt.Errorf("template config is required")
		}
	case PluginTypeFrontmatter:
		if plugin.Frontmatter == nil {
			return fmt.Errorf("frontmatter config is required")
		}
	case PluginTypeGenerate:
		return validateGenerateConfig(plugin)
	case PluginTypeSplit:
		return validateSplitConfig(plugin)
	case PluginTypeRemove:
		return validateRemoveConfig(plugin)
	}
	return nil
}

func validateGenerateConfig(plugin PluginConfig) error {
	if plugin.Generate == nil {
		return fmt.Errorf("generate config is required")
	}
	if plugin.Generate.Output == "" {
		return fmt.Errorf("generate.output is required")
	}
	if escapesRoot(plugin.Generate.Output) {
		return fmt.Errorf("generate.output %q must stay within the pipeline directory", plugin.Generate.Output)
	}
	if plugin.Generate.Template == "" {
		return fmt.Errorf("generate.template is required")
	}
	return nil
}

func validateRemoveConfig(plugin PluginConfig) error {
	if plugin.Remove == nil {
		return fmt.Errorf("remove config is required")
	}
	if len(plugin.Remove.Files.Include) == 0 {
		return fmt.Errorf("remove.files.include is required")
	}
	return nil
}

func validateSplitConfig(plugin PluginConfig) error {
	if plugin.Split == nil {
		return fmt.Errorf("split config is required")
	}
	if plugin.Split.Input == "" {
		return fmt.Errorf("split.input is required")
	}
	if escapesRoot(plugin.Split.Input) {
		return fmt.Errorf("split.input %q must stay within the pipeline directory", plugin.Split.Input)
	}
	if escapesRoot(path.Join(path.Dir(plugin.Split.Input), plugin.Split.OutputDir)) {
		return fmt.Errorf("split.outputDir %q must stay within the pipeline directory", plugin.Split.OutputDir)
	}
	if plugin.Split.By != "" && !validSplitStrategies[plugin.Split.By] {
		valid := make([]string, 0, len(validSplitStrategies))
		for k := range validSplitStrategies {
			valid = append(valid, k)
		}
		slices.Sort(valid)
		return fmt.Errorf("split.by %q is not valid (valid: %s)", plugin.Split.By, strings.Join(valid, ", "))
	}
	if plugin.Split.By == SplitByCustom && plugin.Split.FileNameTemplate == "" {
		return fmt.Errorf("split.fileNameTemplate is required when split.by is %q", SplitByCustom)
	}
	return nil
}

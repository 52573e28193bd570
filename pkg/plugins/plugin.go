// Package plugins provides the built-in file collection plugins that can be
// configured from a pipeline file.
package plugins

import (
	"fmt"
	"maps"

	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
)

// Plugin is a named transform over a file collection. Built-in plugins never
// modify the collection or the records they receive.
type Plugin interface {
	Name() string
	Apply(in files.Collection) (files.Collection, error)
}

// New creates a Plugin from its configuration. data is the template context
// shared by the template and generate plugins.
func New(cfg api.PluginConfig, data map[string]any) (Plugin, error) {
	switch cfg.Type {
	case api.PluginTypeTemplate:
		return NewTemplatePlugin(cfg.Name, cfg.Template, data), nil
	case api.PluginTypeGenerate:
		return NewGeneratePlugin(cfg.Name, cfg.Generate, data), nil
	case api.PluginTypeFrontmatter:
		return NewFrontmatterPlugin(cfg.Name, cfg.Frontmatter), nil
	case api.PluginTypeSplit:
		return NewSplitPlugin(cfg.Name, cfg.Split), nil
	case api.PluginTypeRemove:
		return NewRemovePlugin(cfg.Name, cfg.Remove), nil
	default:
		return nil, fmt.Errorf("unknown plugin type: %s", cfg.Type)
	}
}

// templateData returns the context visible to a template rendering key.
func templateData(data map[string]any, key string, f *files.File) map[string]any {
	out := make(map[string]any, len(data)+1)
	maps.Copy(out, data)
	out["File"] = map[string]any{
		"Path":     key,
		"Metadata": f.Metadata,
	}
	return out
}

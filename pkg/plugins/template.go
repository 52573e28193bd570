package plugins

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
)

type templatePlugin struct {
	name string
	cfg  *api.TemplateConfig
	data map[string]any
}

// NewTemplatePlugin creates a plugin rendering the selected files as Go
// templates with sprig functions.
func NewTemplatePlugin(name string, cfg *api.TemplateConfig, data map[string]any) Plugin {
	return &templatePlugin{name: name, cfg: cfg, data: data}
}

func (p *templatePlugin) Name() string { return p.name }

func (p *templatePlugin) Apply(in files.Collection) (files.Collection, error) {
	keys, err := files.Select(in, p.cfg.Files)
	if err != nil {
		return nil, fmt.Errorf("filtering files: %w", err)
	}

	slog.Info("template plugin processing files", "plugin", p.name, "count", len(keys))

	out := files.Copy(in)
	for _, key := range keys {
		rendered, err := renderFile(key, in[key], p.data)
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", key, err)
		}
		out[key] = rendered
	}

	return out, nil
}

func renderFile(key string, f *files.File, data map[string]any) (*files.File, error) {
	tmpl, err := template.New(path.Base(key)).Funcs(sprig.FuncMap()).Parse(string(f.Contents))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData(data, key, f)); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	rendered := f.Clone()
	rendered.Contents = buf.Bytes()

	slog.Debug("template rendered", "file", key)
	return rendered, nil
}

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

type generatePlugin struct {
	name string
	cfg  *api.GenerateConfig
	data map[string]any
}

// NewGeneratePlugin creates a plugin adding one file rendered from an inline template.
func NewGeneratePlugin(name string, cfg *api.GenerateConfig, data map[string]any) Plugin {
	return &generatePlugin{name: name, cfg: cfg, data: data}
}

func (p *generatePlugin) Name() string { return p.name }

func (p *generatePlugin) Apply(in files.Collection) (files.Collection, error) {
	key := path.Clean(p.cfg.Output)

	tmpl, err := template.New(p.name).Funcs(sprig.FuncMap()).Parse(p.cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	generated := &files.File{}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData(p.data, key, generated)); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	generated.Contents = buf.Bytes()

	out := files.Copy(in)
	out[key] = generated

	slog.Info("generate plugin added file", "plugin", p.name, "output", key)
	return out, nil
}

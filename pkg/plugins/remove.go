package plugins

import (
	"fmt"
	"log/slog"

	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
)

type removePlugin struct {
	name string
	cfg  *api.RemoveConfig
}

// NewRemovePlugin creates a plugin dropping the selected files.
func NewRemovePlugin(name string, cfg *api.RemoveConfig) Plugin {
	return &removePlugin{name: name, cfg: cfg}
}

func (p *removePlugin) Name() string { return p.name }

func (p *removePlugin) Apply(in files.Collection) (files.Collection, error) {
	keys, err := files.Select(in, p.cfg.Files)
	if err != nil {
		return nil, fmt.Errorf("filtering files: %w", err)
	}

	out := files.Copy(in)
	for _, key := range keys {
		delete(out, key)
		slog.Debug("removed file", "plugin", p.name, "file", key)
	}

	slog.Info("remove plugin dropped files", "plugin", p.name, "count", len(keys))
	return out, nil
}

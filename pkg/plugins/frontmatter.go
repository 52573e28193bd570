package plugins

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
	"gopkg.in/yaml.v3"
)

var (
	frontmatterDelimiter = []byte("---")
	newline              = []byte("\n")
)

type frontmatterPlugin struct {
	name string
	cfg  *api.FrontmatterConfig
}

// NewFrontmatterPlugin creates a plugin moving leading YAML front matter of
// the selected files into their metadata.
func NewFrontmatterPlugin(name string, cfg *api.FrontmatterConfig) Plugin {
	return &frontmatterPlugin{name: name, cfg: cfg}
}

func (p *frontmatterPlugin) Name() string { return p.name }

func (p *frontmatterPlugin) Apply(in files.Collection) (files.Collection, error) {
	keys, err := files.Select(in, p.cfg.Files)
	if err != nil {
		return nil, fmt.Errorf("filtering files: %w", err)
	}

	out := files.Copy(in)
	parsed := 0
	for _, key := range keys {
		meta, body, ok := splitFrontmatter(in[key].Contents)
		if !ok {
			continue
		}

		var values map[string]any
		if err := yaml.Unmarshal(meta, &values); err != nil {
			return nil, fmt.Errorf("parsing front matter of %s: %w", key, err)
		}

		f := in[key].Clone()
		if f.Metadata == nil {
			f.Metadata = make(map[string]any, len(values))
		}
		for k, v := range values {
			f.Metadata[k] = v
		}
		f.Contents = bytes.Clone(body)
		out[key] = f
		parsed++
	}

	slog.Info("frontmatter plugin parsed files", "plugin", p.name, "selected", len(keys), "parsed", parsed)
	return out, nil
}

// splitFrontmatter separates a leading "---" delimited block from the body.
// ok is false when the data has no complete front matter block.
func splitFrontmatter(data []byte) (meta, body []byte, ok bool) {
	first, rest, found := bytes.Cut(data, newline)
	if !found || !bytes.Equal(bytes.TrimRight(first, "\r"), frontmatterDelimiter) {
		return nil, nil, false
	}

	start := len(data) - len(rest)
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, newline)
		if bytes.Equal(bytes.TrimRight(line, "\r"), frontmatterDelimiter) {
			end := len(data) - len(rest)
			return data[start:end], next, true
		}
		rest = next
	}
	return nil, nil, false
}

package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
	"gopkg.in/yaml.v3"
)

const kustomizationFile = "kustomization.yaml"

// Manifest represents a single parsed Kubernetes manifest.
type Manifest struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
	Group      string // extracted from apiVersion
	Raw        []byte
	Data       map[string]any
}

type splitPlugin struct {
	name string
	cfg  *api.SplitConfig
}

// NewSplitPlugin creates a plugin splitting a multi-document YAML file into
// one file per group of manifests, next to a kustomization.yaml listing them.
func NewSplitPlugin(name string, cfg *api.SplitConfig) Plugin {
	return &splitPlugin{name: name, cfg: cfg}
}

func (p *splitPlugin) Name() string { return p.name }

func (p *splitPlugin) Apply(in files.Collection) (files.Collection, error) {
	input := path.Clean(p.cfg.Input)
	source, ok := in[input]
	if !ok {
		return nil, fmt.Errorf("input %q not found in collection", p.cfg.Input)
	}
	if len(source.Contents) == 0 {
		return nil, fmt.Errorf("input %q is empty", p.cfg.Input)
	}

	canonicalOrder := p.cfg.CanonicalKeyOrder == nil || *p.cfg.CanonicalKeyOrder
	manifests, err := parseMultiDocYAML(source.Contents, canonicalOrder)
	if err != nil {
		return nil, fmt.Errorf("parsing multi-doc YAML: %w", err)
	}

	slog.Info("split plugin", "plugin", p.name, "input", input, "manifests", len(manifests), "strategy", p.cfg.By)

	assign, err := getStrategy(p.cfg.By)
	if err != nil {
		return nil, err
	}

	assignments, err := assign(manifests, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("assigning manifests: %w", err)
	}

	out := files.Copy(in)
	if !p.cfg.KeepInput {
		delete(out, input)
	}

	base := path.Dir(input)
	resources := make([]string, 0, len(assignments))
	for rel, docs := range assignments {
		resource := path.Join(outputPrefix(p.cfg.OutputDir), rel)
		key := path.Join(base, resource)
		out[key] = &files.File{Contents: marshalDocs(docs), Mode: source.Mode}
		resources = append(resources, resource)
		slog.Debug("split produced file", "file", key, "manifests", len(docs))
	}

	out[path.Join(base, kustomizationFile)] = &files.File{
		Contents: kustomization(resources),
		Mode:     source.Mode,
	}

	return out, nil
}

func outputPrefix(outputDir string) string {
	if outputDir == "" {
		return "."
	}
	return outputDir
}

func kustomization(resources []string) []byte {
	slices.Sort(resources)

	var buf bytes.Buffer
	buf.WriteString("apiVersion: kustomize.config.k8s.io/v1beta1\nkind: Kustomization\nresources:\n")
	for _, r := range resources {
		buf.WriteString("  - ")
		buf.WriteString(r)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func marshalDocs(docs []Manifest) []byte {
	var buf bytes.Buffer
	for i, m := range docs {
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(m.Raw)
		if !bytes.HasSuffix(m.Raw, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func parseMultiDocYAML(data []byte, canonicalOrder bool) ([]Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var manifests []Manifest

	for {
		var node yaml.Node
		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding YAML document: %w", err)
		}
		if isEmptyDoc(&node) {
			continue
		}

		if canonicalOrder {
			reorderMappingKeys(&node)
		}

		m, err := buildManifest(&node)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	return manifests, nil
}

func isEmptyDoc(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		c := node.Content[0]
		return c.Kind == yaml.ScalarNode && c.Tag == "!!null"
	}
	return false
}

// priorityKeys is the canonical top-of-manifest key order.
var priorityKeys = map[string]int{
	"apiVersion": 0,
	"kind":       1,
	"metadata":   2,
}

// reorderMappingKeys moves apiVersion, kind and metadata to the top of the
// document; other keys keep their original order.
func reorderMappingKeys(node *yaml.Node) {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return
	}

	type pair struct {
		key *yaml.Node
		val *yaml.Node
	}

	pairs := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, pair{node.Content[i], node.Content[i+1]})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		pi, oki := priorityKeys[pairs[i].key.Value]
		pj, okj := priorityKeys[pairs[j].key.Value]
		if oki && okj {
			return pi < pj
		}
		return oki
	})

	for i, p := range pairs {
		node.Content[i*2] = p.key
		node.Content[i*2+1] = p.val
	}
}

func buildManifest(node *yaml.Node) (Manifest, error) {
	var doc map[string]any
	if err := node.Decode(&doc); err != nil {
		return Manifest{}, fmt.Errorf("decoding document fields: %w", err)
	}

	m := Manifest{Data: doc}

	if v, ok := doc["apiVersion"].(string); ok {
		m.APIVersion = v
		m.Group = extractGroup(v)
	}
	if v, ok := doc["kind"].(string); ok {
		m.Kind = v
	}
	if meta, ok := doc["metadata"].(map[string]any); ok {
		if v, ok := meta["name"].(string); ok {
			m.Name = v
		}
		if v, ok := meta["namespace"].(string); ok {
			m.Namespace = v
		}
	}

	raw, err := yaml.Marshal(node)
	if err != nil {
		return Manifest{}, fmt.Errorf("re-marshaling document: %w", err)
	}
	m.Raw = raw

	return m, nil
}

// extractGroup returns the API group of an apiVersion, "core" for the legacy group.
func extractGroup(apiVersion string) string {
	group, _, found := strings.Cut(apiVersion, "/")
	if !found {
		return "core"
	}
	return group
}

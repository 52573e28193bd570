package plugins

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/systemstart/many-plugins/pkg/api"
)

// assignFunc maps manifests to file paths relative to the split output directory.
type assignFunc func(manifests []Manifest, cfg *api.SplitConfig) (map[string][]Manifest, error)

func getStrategy(name string) (assignFunc, error) {
	switch name {
	case api.SplitByKind, "":
		return assignByKind, nil
	case api.SplitByResource:
		return byPath(resourcePath), nil
	case api.SplitByGroup:
		return byPath(groupPath), nil
	case api.SplitByKindDir:
		return byPath(kindDirPath), nil
	case api.SplitByCustom:
		return assignByTemplate, nil
	default:
		return nil, fmt.Errorf("unknown split strategy: %s", name)
	}
}

// assignByKind groups all manifests of the same Kind into one file.
func assignByKind(manifests []Manifest, _ *api.SplitConfig) (map[string][]Manifest, error) {
	result := make(map[string][]Manifest)
	for _, m := range manifests {
		filename := strings.ToLower(m.Kind) + ".yaml"
		result[filename] = append(result[filename], m)
	}
	return result, nil
}

// byPath puts each manifest at the path computed by pathFor, adding the
// namespace on collisions.
func byPath(pathFor func(Manifest) string) assignFunc {
	return func(manifests []Manifest, _ *api.SplitConfig) (map[string][]Manifest, error) {
		result := make(map[string][]Manifest)
		for _, m := range manifests {
			p := disambiguate(result, pathFor(m), m)
			result[p] = append(result[p], m)
		}
		return result, nil
	}
}

func resourceFilename(m Manifest) string {
	return strings.ToLower(m.Kind) + "-" + strings.ToLower(m.Name) + ".yaml"
}

// resourcePath is <kind>-<name>.yaml.
func resourcePath(m Manifest) string {
	return resourceFilename(m)
}

// groupPath is <group>/<kind>-<name>.yaml.
func groupPath(m Manifest) string {
	return strings.ToLower(m.Group) + "/" + resourceFilename(m)
}

// kindDirPath is <plural kind>/<name>.yaml.
func kindDirPath(m Manifest) string {
	return pluralize(m.Kind) + "/" + strings.ToLower(m.Name) + ".yaml"
}

var irregularPlurals = map[string]string{
	"ingress": "ingresses",
}

func pluralize(kind string) string {
	lower := strings.ToLower(kind)
	if p, ok := irregularPlurals[lower]; ok {
		return p
	}
	if strings.HasSuffix(lower, "s") {
		return lower + "es"
	}
	if strings.HasSuffix(lower, "y") {
		return lower[:len(lower)-1] + "ies"
	}
	return lower + "s"
}

func disambiguate(result map[string][]Manifest, p string, m Manifest) string {
	if _, exists := result[p]; exists && m.Namespace != "" {
		ext := path.Ext(p)
		return strings.TrimSuffix(p, ext) + "-" + strings.ToLower(m.Namespace) + ext
	}
	return p
}

// assignByTemplate renders cfg.FileNameTemplate against each manifest.
func assignByTemplate(manifests []Manifest, cfg *api.SplitConfig) (map[string][]Manifest, error) {
	tmpl, err := template.New("filename").Parse(cfg.FileNameTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing fileNameTemplate: %w", err)
	}

	result := make(map[string][]Manifest)
	for _, m := range manifests {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, m.Data); err != nil {
			return nil, fmt.Errorf("executing fileNameTemplate for %s/%s: %w", m.Kind, m.Name, err)
		}
		p := buf.String()
		result[p] = append(result[p], m)
	}
	return result, nil
}

package processing

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

// LoadContextFile reads a YAML file and returns it as a map.
func LoadContextFile(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	var ctx map[string]any
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parsing context file: %w", err)
	}

	if ctx == nil {
		ctx = make(map[string]any)
	}

	return ctx, nil
}

// MergeContext performs a shallow merge of local context over global context.
// Local keys override global keys at the top level.
func MergeContext(global, local map[string]any) map[string]any {
	merged := make(map[string]any, len(global)+len(local))
	maps.Copy(merged, global)
	maps.Copy(merged, local)
	return merged
}

// InterpolateContext renders string values containing template actions
// against the context itself, so values may reference other keys. Nested maps
// and lists are walked; every value sees the context as it was before
// interpolation.
func InterpolateContext(ctx map[string]any) error {
	snapshot := maps.Clone(ctx)
	for k, v := range ctx {
		rendered, err := interpolateValue(v, snapshot)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		ctx[k] = rendered
	}
	return nil
}

func interpolateValue(v any, data map[string]any) (any, error) {
	switch val := v.(type) {
	case string:
		if !strings.Contains(val, "{{") {
			return val, nil
		}
		tmpl, err := template.New("context").Funcs(sprig.FuncMap()).Parse(val)
		if err != nil {
			return nil, fmt.Errorf("parsing template: %w", err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template: %w", err)
		}
		return buf.String(), nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			rendered, err := interpolateValue(item, data)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			rendered, err := interpolateValue(item, data)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

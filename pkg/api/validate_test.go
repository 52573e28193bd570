package api

import (
	"strings"
	"testing"
)

func TestValidate_ValidPipeline(t *testing.T) {
	p := &Pipeline{
		Plugins: []PluginConfig{
			{
				Name:        "meta",
				Type:        PluginTypeFrontmatter,
				Frontmatter: &FrontmatterConfig{Files: FileFilter{Include: []string{"**/*.md"}}},
			},
			{
				Name:     "render",
				Type:     PluginTypeTemplate,
				Template: &TemplateConfig{Files: FileFilter{Include: []string{"**/*.yaml"}}},
			},
			{
				Name:     "gen",
				Type:     PluginTypeGenerate,
				Generate: &GenerateConfig{Output: "out.yaml", Template: "key: value"},
			},
			{
				Name:  "split",
				Type:  PluginTypeSplit,
				Split: &SplitConfig{Input: "out.yaml", By: SplitByKind, OutputDir: "manifests/"},
			},
			{
				Name:   "drop",
				Type:   PluginTypeRemove,
				Remove: &RemoveConfig{Files: FileFilter{Include: []string{"*.tmp"}}},
			},
		},
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid pipeline, got error: %v", err)
	}
}

func TestValidate_OutputDirBelowInputParent(t *testing.T) {
	p := &Pipeline{
		Plugins: []PluginConfig{{
			Name:  "split",
			Type:  PluginTypeSplit,
			Split: &SplitConfig{Input: "deploy/all.yaml", OutputDir: "../manifests"},
		}},
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("expected outputDir resolving inside the pipeline directory to be valid, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		plugins []PluginConfig
		want    string
	}{
		{
			name: "empty pipeline",
			want: "no plugins",
		},
		{
			name:    "missing name",
			plugins: []PluginConfig{{Type: PluginTypeTemplate, Template: &TemplateConfig{}}},
			want:    "name is required",
		},
		{
			name: "duplicate name",
			plugins: []PluginConfig{
				{Name: "a", Type: PluginTypeTemplate, Template: &TemplateConfig{}},
				{Name: "a", Type: PluginTypeTemplate, Template: &TemplateConfig{}},
			},
			want: "duplicate plugin name",
		},
		{
			name:    "unknown type",
			plugins: []PluginConfig{{Name: "a", Type: "unknown"}},
			want:    "unknown type",
		},
		{
			name:    "missing template config",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeTemplate}},
			want:    "template config is required",
		},
		{
			name:    "missing frontmatter config",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeFrontmatter}},
			want:    "frontmatter config is required",
		},
		{
			name:    "missing generate config",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeGenerate}},
			want:    "generate config is required",
		},
		{
			name:    "generate missing output",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeGenerate, Generate: &GenerateConfig{Template: "x"}}},
			want:    "generate.output is required",
		},
		{
			name:    "generate missing template",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeGenerate, Generate: &GenerateConfig{Output: "out.yaml"}}},
			want:    "generate.template is required",
		},
		{
			name:    "generate output escapes",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeGenerate, Generate: &GenerateConfig{Output: "../escape.txt", Template: "x"}}},
			want:    "must stay within the pipeline directory",
		},
		{
			name:    "generate output absolute",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeGenerate, Generate: &GenerateConfig{Output: "/etc/passwd", Template: "x"}}},
			want:    "must stay within the pipeline directory",
		},
		{
			name:    "missing remove config",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeRemove}},
			want:    "remove config is required",
		},
		{
			name:    "remove without include",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeRemove, Remove: &RemoveConfig{}}},
			want:    "remove.files.include is required",
		},
		{
			name:    "missing split config",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit}},
			want:    "split config is required",
		},
		{
			name:    "split missing input",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit, Split: &SplitConfig{By: SplitByKind}}},
			want:    "split.input is required",
		},
		{
			name:    "split input escapes",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit, Split: &SplitConfig{Input: "../all.yaml"}}},
			want:    "split.input",
		},
		{
			name:    "split output dir escapes",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit, Split: &SplitConfig{Input: "deploy/all.yaml", OutputDir: "../../out"}}},
			want:    "split.outputDir",
		},
		{
			name:    "split invalid strategy",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit, Split: &SplitConfig{Input: "all.yaml", By: "invalid"}}},
			want:    "not valid",
		},
		{
			name:    "split custom without template",
			plugins: []PluginConfig{{Name: "a", Type: PluginTypeSplit, Split: &SplitConfig{Input: "all.yaml", By: SplitByCustom}}},
			want:    "fileNameTemplate is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{Plugins: tt.plugins}
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

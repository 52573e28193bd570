package api

const (
	DefaultFileInclude = "**/*"

	PluginTypeTemplate    = "template"
	PluginTypeGenerate    = "generate"
	PluginTypeFrontmatter = "frontmatter"
	PluginTypeSplit       = "split"
	PluginTypeRemove      = "remove"

	SplitByKind     = "kind"
	SplitByResource = "resource"
	SplitByGroup    = "group"
	SplitByKindDir  = "kind-dir"
	SplitByCustom   = "custom"
)

// Pipeline is the .plugins.yaml configuration format.
type Pipeline struct {
	Context map[string]any `yaml:"context"`
	// Files selects the files handed to the plugins; the rest pass through.
	Files   FileFilter     `yaml:"files"`
	Plugins []PluginConfig `yaml:"plugins"`

	// Set by the loader, not from YAML.
	Dir      string `yaml:"-"`
	FilePath string `yaml:"-"`
}

// PluginConfig defines a single plugin within a pipeline.
type PluginConfig struct {
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Template    *TemplateConfig    `yaml:"template,omitempty"`
	Generate    *GenerateConfig    `yaml:"generate,omitempty"`
	Frontmatter *FrontmatterConfig `yaml:"frontmatter,omitempty"`
	Split       *SplitConfig       `yaml:"split,omitempty"`
	Remove      *RemoveConfig      `yaml:"remove,omitempty"`
}

// FileFilter defines include/exclude glob patterns.
type FileFilter struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// TemplateConfig configures the template plugin.
type TemplateConfig struct {
	Files FileFilter `yaml:"files"`
}

// GenerateConfig configures the generate plugin.
type GenerateConfig struct {
	Output   string `yaml:"output"`
	Template string `yaml:"template"`
}

// FrontmatterConfig configures the frontmatter plugin.
type FrontmatterConfig struct {
	Files FileFilter `yaml:"files"`
}

// RemoveConfig configures the remove plugin.
type RemoveConfig struct {
	Files FileFilter `yaml:"files"`
}

// SplitConfig configures the split plugin.
type SplitConfig struct {
	Input             string `yaml:"input"`
	By                string `yaml:"by"`
	OutputDir         string `yaml:"outputDir"`
	FileNameTemplate  string `yaml:"fileNameTemplate"`
	CanonicalKeyOrder *bool  `yaml:"canonicalKeyOrder,omitempty"` // default true
	KeepInput         bool   `yaml:"keepInput"`
}

// InstancesConfig lists variants of one pipeline run, each with its own
// context and output directory.
type InstancesConfig struct {
	Instances []Instance `yaml:"instances"`
}

// Instance is a single variant within an InstancesConfig.
type Instance struct {
	Name    string         `yaml:"name"`
	Input   string         `yaml:"input"`
	Output  string         `yaml:"output"`
	Context map[string]any `yaml:"context"`
	// Files narrows the pipeline's own file selection for this instance.
	Files FileFilter `yaml:"files"`
}

package processing

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/files"
	"github.com/systemstart/many-plugins/pkg/pluginmanager"
	"github.com/systemstart/many-plugins/pkg/plugins"
)

// RunPipeline applies a pipeline's plugins to the files of its directory.
// Keys of in are relative to the pipeline directory. Files not selected by
// the pipeline's file filter are passed through unchanged.
func RunPipeline(pipeline *api.Pipeline, in files.Collection, globalContext map[string]any, opts ...pluginmanager.Option) (files.Collection, error) {
	ctx := MergeContext(globalContext, pipeline.Context)
	if err := InterpolateContext(ctx); err != nil {
		return nil, fmt.Errorf("interpolating context: %w", err)
	}

	manager := pluginmanager.New[*files.File](opts...)
	for _, cfg := range pipeline.Plugins {
		if err := addPlugin(manager, pipeline, cfg, ctx); err != nil {
			return nil, err
		}
	}

	selected, passthrough, err := partition(in, pipeline.Files)
	if err != nil {
		return nil, fmt.Errorf("selecting files: %w", err)
	}

	result, err := manager.Run(selected)
	if err != nil {
		return nil, err
	}

	for key, f := range result {
		passthrough[key] = f
	}
	return passthrough, nil
}

func addPlugin(manager *pluginmanager.Manager[*files.File], pipeline *api.Pipeline, cfg api.PluginConfig, ctx map[string]any) error {
	plugin, err := plugins.New(cfg, ctx)
	if err != nil {
		return fmt.Errorf("creating plugin %q: %w", cfg.Name, err)
	}

	apply := func(in files.Collection) (files.Collection, error) {
		slog.Info("running plugin", "pipeline", pipeline.FilePath, "plugin", plugin.Name(), "type", cfg.Type)
		out, err := plugin.Apply(in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", plugin.Name(), err)
		}
		return out, nil
	}

	if err := manager.AddFunc(apply); err != nil {
		return fmt.Errorf("registering plugin %q: %w", cfg.Name, err)
	}
	return nil
}

func partition(in files.Collection, filter api.FileFilter) (selected, rest files.Collection, err error) {
	selected = make(files.Collection)
	rest = make(files.Collection)
	for key, f := range in {
		ok, matchErr := files.Match(filter, key)
		if matchErr != nil {
			return nil, nil, matchErr
		}
		if ok {
			selected[key] = f
		} else {
			rest[key] = f
		}
	}
	return selected, rest, nil
}

// RunAll loads inputDir, runs every discovered pipeline on its own subtree
// (parents before children) and writes the result to outputDir. A failed
// pipeline leaves its subtree unchanged; the others still run.
func RunAll(inputDir, outputDir string, globalContext map[string]any, maxDepth int, contextFile string, opts ...pluginmanager.Option) error {
	return runTree(inputDir, outputDir, api.FileFilter{}, globalContext, maxDepth, contextFile, opts...)
}

func runTree(inputDir, outputDir string, filter api.FileFilter, globalContext map[string]any, maxDepth int, contextFile string, opts ...pluginmanager.Option) error {
	pipelines, err := DiscoverPipelines(inputDir, maxDepth)
	if err != nil {
		return fmt.Errorf("discovering pipelines: %w", err)
	}

	tree, err := readInput(inputDir, filter, contextFile)
	if err != nil {
		return err
	}

	if len(pipelines) == 0 {
		slog.Warn("no pipeline files found", "dir", inputDir)
	} else {
		slog.Info("discovered pipelines", "count", len(pipelines))
	}

	var failed []string
	for _, p := range pipelines {
		slog.Info("executing pipeline", "path", p.FilePath)
		if pErr := runScoped(p, inputDir, tree, globalContext, opts...); pErr != nil {
			slog.Error("pipeline failed", "path", p.FilePath, "error", pErr)
			failed = append(failed, p.FilePath)
		} else {
			slog.Info("pipeline succeeded", "path", p.FilePath)
		}
	}

	if err := files.WriteTree(outputDir, tree); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d pipeline(s) failed: %v", len(failed), failed)
	}

	return nil
}

// RunSingle loads inputDir, runs one pipeline on its subtree and writes the
// result to outputDir. The pipelineFile must be a path within inputDir.
func RunSingle(pipelineFile, inputDir, outputDir string, globalContext map[string]any, contextFile string, opts ...pluginmanager.Option) error {
	if _, ok := relativeToInput(pipelineFile, inputDir); !ok {
		return fmt.Errorf("pipeline file %q is not within input directory %q", pipelineFile, inputDir)
	}

	pipeline, err := api.LoadPipeline(pipelineFile)
	if err != nil {
		return fmt.Errorf("loading pipeline: %w", err)
	}

	tree, err := readInput(inputDir, api.FileFilter{}, contextFile)
	if err != nil {
		return err
	}

	slog.Info("executing single pipeline", "path", pipeline.FilePath)
	if pErr := runScoped(pipeline, inputDir, tree, globalContext, opts...); pErr != nil {
		return fmt.Errorf("pipeline failed: %w", pErr)
	}

	if err := files.WriteTree(outputDir, tree); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// RunInstances processes each instance: filtered load, pipeline discovery,
// execution with the instance context, output below the instance directory.
func RunInstances(cfg *api.InstancesConfig, inputDir, outputDir string, globalContext map[string]any, maxDepth int, contextFile string, opts ...pluginmanager.Option) error {
	var failed []string

	for _, inst := range cfg.Instances {
		slog.Info("processing instance", "name", inst.Name)

		instInputDir := inputDir
		if inst.Input != "" {
			instInputDir = filepath.Join(inputDir, inst.Input)
		}
		instOutputDir := filepath.Join(outputDir, inst.Output)
		instContext := MergeContext(globalContext, inst.Context)

		err := runTree(instInputDir, instOutputDir, inst.Files, instContext, maxDepth, contextFile, opts...)
		if err != nil {
			slog.Error("instance failed", "name", inst.Name, "error", err)
			failed = append(failed, inst.Name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d instance(s) failed: %v", len(failed), failed)
	}

	return nil
}

// runScoped runs pipeline on the part of tree below the pipeline directory
// and replaces that part with the result. tree is only modified on success;
// a result key outside the pipeline directory fails the pipeline.
func runScoped(pipeline *api.Pipeline, inputDir string, tree files.Collection, globalContext map[string]any, opts ...pluginmanager.Option) error {
	prefix, ok := relativeToInput(pipeline.Dir, inputDir)
	if !ok {
		return fmt.Errorf("pipeline directory %q is not within input directory %q", pipeline.Dir, inputDir)
	}
	prefix = filepath.ToSlash(prefix)

	scoped := make(files.Collection)
	for key, f := range tree {
		if rel, ok := underPrefix(key, prefix); ok {
			scoped[rel] = f
		}
	}

	result, err := RunPipeline(pipeline, scoped, globalContext, opts...)
	if err != nil {
		return err
	}
	for rel := range result {
		if !fs.ValidPath(path.Clean(rel)) {
			return fmt.Errorf("output %q escapes the pipeline directory", rel)
		}
	}

	for key := range tree {
		if _, ok := underPrefix(key, prefix); ok {
			delete(tree, key)
		}
	}
	for rel, f := range result {
		tree[path.Join(prefix, rel)] = f
	}
	return nil
}

func underPrefix(key, prefix string) (string, bool) {
	if prefix == "." {
		return key, true
	}
	rel, found := strings.CutPrefix(key, prefix+"/")
	if !found {
		return "", false
	}
	return rel, true
}

// readInput loads inputDir without pipeline files and the context file.
func readInput(inputDir string, filter api.FileFilter, contextFile string) (files.Collection, error) {
	filter.Exclude = append(filter.Exclude[:len(filter.Exclude):len(filter.Exclude)], "**/"+api.PipelineFilename)
	if contextFile != "" {
		if rel, ok := relativeToInput(contextFile, inputDir); ok {
			filter.Exclude = append(filter.Exclude, filepath.ToSlash(rel))
		}
	}

	tree, err := files.ReadTree(inputDir, filter)
	if err != nil {
		return nil, fmt.Errorf("loading input directory: %w", err)
	}
	return tree, nil
}

func relativeToInput(file, inputDir string) (string, bool) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absInput, absFile)
	if err != nil {
		return "", false
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

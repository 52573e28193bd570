package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/systemstart/many-plugins/pkg/api"
	"github.com/systemstart/many-plugins/pkg/logging"
	"github.com/systemstart/many-plugins/pkg/metrics"
	"github.com/systemstart/many-plugins/pkg/pluginmanager"
	"github.com/systemstart/many-plugins/pkg/processing"
)

var version = "dev"

const (
	_ = iota
	exitLoggingSetupFailed
	exitConflictingModes
	exitDotenvError
	exitLoadInstancesFailed
	exitToolErrors
	exitInputDirectoryNotSpecified
	exitInputDirectoryCheckFailed
	exitInputDirectoryNotADirectory
	exitOutputDirectoryNotSpecified
	exitOutputDirectoryCheckFailed
	exitOutputDirectoryCleanFailed
	exitOutputDirectoryCreateFailed
	exitLoadContextFailed
	exitWriteMetricsFailed
)

var (
	processingFile           string
	instancesFile            string
	inputDirectory           string
	outputDirectory          string
	overwriteOutputDirectory bool
	contextFile              string
	maxDepth                 int
	loggingType              string
	logLevel                 string
	metricsFile              string
	showVersion              bool
)

func init() {
	flag.StringVar(
		&processingFile,
		"processing",
		"",
		"single "+api.PipelineFilename+" to run (non-recursive mode)")
	flag.StringVar(
		&instancesFile,
		"instances",
		"",
		"instances YAML file; runs discovery mode once per instance")
	flag.StringVar(
		&inputDirectory,
		"input-directory",
		"",
		"input directory")
	flag.StringVar(
		&outputDirectory,
		"output-directory",
		"",
		"output directory")
	flag.BoolVar(
		&overwriteOutputDirectory,
		"overwrite-output-directory",
		false,
		"delete and recreate output directory")
	flag.StringVar(
		&contextFile,
		"context-file",
		"",
		"global context YAML file")
	flag.IntVar(
		&maxDepth,
		"max-depth",
		-1,
		"max directory recursion depth (-1 = unlimited, 0 = root only)")
	flag.StringVar(
		&loggingType,
		"logging-type",
		"tint",
		"logging type: json, text or tint")
	flag.StringVar(
		&logLevel,
		"log-level",
		"info",
		"logging level: trace, debug, info, warn, error")
	flag.StringVar(
		&metricsFile,
		"metrics-file",
		"",
		"write plugin metrics in Prometheus text format to this file")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := logging.Initialize(loggingType, logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(exitLoggingSetupFailed)
	}

	if processingFile != "" && instancesFile != "" {
		slog.Error("-processing and -instances are mutually exclusive")
		os.Exit(exitConflictingModes)
	}

	includeEnv()
	checkInputDirectory()
	ensureOutputDirectory()

	globalContext := loadGlobalContext()

	recorder := metrics.NewRecorder()
	opts := []pluginmanager.Option{pluginmanager.WithObserver(recorder)}

	var err error
	switch {
	case processingFile != "":
		err = processing.RunSingle(processingFile, inputDirectory, outputDirectory, globalContext, contextFile, opts...)
	case instancesFile != "":
		err = runInstances(globalContext, opts)
	default:
		err = processing.RunAll(inputDirectory, outputDirectory, globalContext, maxDepth, contextFile, opts...)
	}

	writeMetrics(recorder)

	if err != nil {
		slog.Error("processing failed", "error", err)
		os.Exit(exitToolErrors)
	}

	slog.Info("done")
}

func runInstances(globalContext map[string]any, opts []pluginmanager.Option) error {
	cfg, err := api.LoadInstances(instancesFile)
	if err != nil {
		slog.Error("failed to load instances file", "filename", instancesFile, "error", err)
		os.Exit(exitLoadInstancesFailed)
	}
	return processing.RunInstances(cfg, inputDirectory, outputDirectory, globalContext, maxDepth, contextFile, opts...)
}

func writeMetrics(recorder *metrics.Recorder) {
	if metricsFile == "" {
		return
	}
	if err := recorder.WriteFile(metricsFile); err != nil {
		slog.Error("failed to write metrics", "filename", metricsFile, "error", err)
		os.Exit(exitWriteMetricsFailed)
	}
	slog.Info("metrics written", "filename", metricsFile)
}

func loadGlobalContext() map[string]any {
	if contextFile == "" {
		return nil
	}

	ctx, err := processing.LoadContextFile(contextFile)
	if err != nil {
		slog.Error("failed to load context file", "filename", contextFile, "error", err)
		os.Exit(exitLoadContextFailed)
	}
	return ctx
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to load .env", "error", err)
			os.Exit(exitDotenvError)
		}
		slog.Debug("no .env file found")
	} else {
		slog.Info("using .env file")
	}
}

func checkInputDirectory() {
	if inputDirectory == "" {
		slog.Error("-input-directory not set")
		os.Exit(exitInputDirectoryNotSpecified)
	}

	st, err := os.Stat(inputDirectory)
	if err != nil {
		slog.Error("failed to check input directory", "directory", inputDirectory, "error", err)
		os.Exit(exitInputDirectoryCheckFailed)
	}

	if !st.IsDir() {
		slog.Error("-input-directory is not a directory", "directory", inputDirectory)
		os.Exit(exitInputDirectoryNotADirectory)
	}
}

func ensureOutputDirectory() {
	if outputDirectory == "" {
		slog.Error("-output-directory not set")
		os.Exit(exitOutputDirectoryNotSpecified)
	}

	_, err := os.Stat(outputDirectory)
	if !os.IsNotExist(err) {
		if err != nil {
			slog.Error("failed to check output directory", "directory", outputDirectory, "error", err)
			os.Exit(exitOutputDirectoryCheckFailed)
		}

		if overwriteOutputDirectory {
			err = os.RemoveAll(outputDirectory)
			if err != nil {
				slog.Error("failed to clean output directory", "directory", outputDirectory, "error", err)
				os.Exit(exitOutputDirectoryCleanFailed)
			}
		}
	}

	err = os.MkdirAll(outputDirectory, 0750)
	if err != nil {
		slog.Error("failed to create output directory", "directory", outputDirectory, "error", err)
		os.Exit(exitOutputDirectoryCreateFailed)
	}
}

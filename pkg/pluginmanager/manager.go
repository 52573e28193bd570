package pluginmanager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/systemstart/many-plugins/pkg/logging"
)

// LoggerName is the name of the logger handle used when none is injected.
const LoggerName = "plugin-runner"

// Observer is notified around every plugin invocation.
type Observer interface {
	PluginStarted(index int)
	PluginFinished(index int, elapsed time.Duration, err error)
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger receiving trace, info and error events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver registers an Observer for plugin invocations.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// Manager holds an ordered list of plugins and applies them as a left fold.
type Manager[T any] struct {
	mu       sync.Mutex
	plugins  []Plugin[T]
	logger   *slog.Logger
	observer Observer
}

// New creates an empty Manager.
func New[T any](opts ...Option) *Manager[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Named(LoggerName)
	}
	return &Manager[T]{logger: o.logger, observer: o.observer}
}

// Add appends plugin to the end of the pipeline.
func (m *Manager[T]) Add(plugin Plugin[T]) error {
	m.trace("adding plugin to pipeline")
	if plugin == nil {
		m.logger.Error("plugin must be a function")
		return invalidPluginError()
	}

	m.mu.Lock()
	m.plugins = append(m.plugins, plugin)
	total := len(m.plugins)
	m.mu.Unlock()

	m.logger.Info("plugin added", "total", total)
	return nil
}

// AddFunc registers a plugin whose type is only known at runtime. v must be a
// Plugin[T] or a func with the same signature.
func (m *Manager[T]) AddFunc(v any) error {
	switch fn := v.(type) {
	case Plugin[T]:
		return m.Add(fn)
	case func(Collection[T]) (Collection[T], error):
		return m.Add(fn)
	default:
		m.trace("adding plugin to pipeline")
		m.logger.Error("plugin must be a function", "type", fmt.Sprintf("%T", v))
		return invalidPluginError()
	}
}

// Run applies every registered plugin in registration order. Each plugin
// receives the output of the previous one; the first receives files. With no
// plugins registered, files is returned as is. The first failure stops the
// run and no collection is returned.
func (m *Manager[T]) Run(files Collection[T]) (Collection[T], error) {
	m.mu.Lock()
	plugins := make([]Plugin[T], len(m.plugins))
	copy(plugins, m.plugins)
	m.mu.Unlock()

	logger := m.logger.With("run", uuid.NewString())
	traceTo(logger, "starting plugin execution")
	logger.Info("running plugins", "total", len(plugins))

	current := files
	for i, plugin := range plugins {
		index := i + 1
		traceTo(logger, "running plugin", "plugin", index, "total", len(plugins))

		next, err := m.invoke(logger, index, plugin, current)
		if err != nil {
			return nil, err
		}
		current = next

		traceTo(logger, "plugin completed", "plugin", index)
	}

	logger.Info("all plugins executed")
	return current, nil
}

func (m *Manager[T]) invoke(logger *slog.Logger, index int, plugin Plugin[T], files Collection[T]) (result Collection[T], err error) {
	if m.observer != nil {
		m.observer.PluginStarted(index)
		start := time.Now()
		defer func() { m.observer.PluginFinished(index, time.Since(start), err) }()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("plugin panicked", "plugin", index, "panic", r)
			result, err = nil, executionError(index, r)
		}
	}()

	out, pErr := plugin(files)
	if pErr != nil {
		logger.Error("plugin failed", "plugin", index, "error", pErr)
		return nil, executionError(index, pErr)
	}
	return out, nil
}

// Clear removes all registered plugins.
func (m *Manager[T]) Clear() {
	m.trace("clearing all plugins")
	m.mu.Lock()
	m.plugins = nil
	m.mu.Unlock()
	m.logger.Info("all plugins cleared")
}

// Len returns the number of registered plugins.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plugins)
}

func (m *Manager[T]) trace(msg string, args ...any) {
	traceTo(m.logger, msg, args...)
}

func traceTo(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), logging.LevelTrace, msg, args...)
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// LevelTrace sits below debug and carries per-plugin progress events.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel accepts "trace" and every level name slog understands.
func ParseLevel(name string) (slog.Level, error) {
	if strings.EqualFold(name, "trace") {
		return LevelTrace, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("could not parse log level: %v", err)
	}
	return level, nil
}

func Initialize(loggingType string, logLevelName string) error {
	return InitializeTo(os.Stdout, loggingType, logLevelName)
}

// InitializeTo behaves like Initialize but writes to w.
func InitializeTo(w io.Writer, loggingType string, logLevelName string) error {
	logLevel, err := ParseLevel(logLevelName)
	if err != nil {
		return err
	}

	var (
		logHandlerOptions = slog.HandlerOptions{
			AddSource:   true,
			Level:       logLevel,
			ReplaceAttr: renameTrace,
		}
		logHandler slog.Handler
	)

	switch loggingType {
	case JSON:
		logHandler = slog.NewJSONHandler(w, &logHandlerOptions)
	case Text:
		logHandler = slog.NewTextHandler(w, &logHandlerOptions)
	case Tint:
		logHandler = tint.NewHandler(w, &tint.Options{
			AddSource:   logHandlerOptions.AddSource,
			Level:       logHandlerOptions.Level,
			ReplaceAttr: logHandlerOptions.ReplaceAttr,
		})
	default:
		return fmt.Errorf("unknown logging type: %s", loggingType)

	}

	slog.SetDefault(slog.New(logHandler))
	slog.Info("logging initialized", "logLevel", logLevel)
	return nil
}

// Named returns the default logger tagged with a logger name.
func Named(name string) *slog.Logger {
	return slog.Default().With("logger", name)
}

func renameTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

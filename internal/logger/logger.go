// Package logger owns the process-wide slog logger. Records are JSON on
// stderr, tagged with the trace and span ids of the context they are logged with.
package logger

import (
	"io"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

// LogLevel is shared by every handler built here so SetLevel applies everywhere.
var LogLevel = new(slog.LevelVar)

var (
	Handler = NewHandler(os.Stderr)
	Logger  = slog.New(Handler)
)

// NewHandler builds the JSON plus trace context handler writing to w.
func NewHandler(w io.Writer) slog.Handler {
	json := slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: LogLevel})
	return slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))(json)
}

// InitSlog installs Logger as the slog default at debug level until
// configuration says otherwise.
func InitSlog() {
	LogLevel.Set(slog.LevelDebug)
	slog.SetDefault(Logger)
}

// SetLevel takes slog's numeric levels, e.g. -4 debug and 0 info.
func SetLevel(level int) {
	LogLevel.Set(slog.Level(level))
}

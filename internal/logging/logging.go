// v1
// internal/logging/logging.go
package logging

import (
	"io"
	"log/slog"
	"os"
)

// DualLogger writes slog output to stdout and, when the file can be opened, to a
// logfile as well.
type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New creates the logger. A failure to open the logfile degrades to stdout-only
// rather than aborting the service.
func New(path string) *DualLogger {
	var w io.Writer = os.Stdout
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			file = f
			w = io.MultiWriter(os.Stdout, f)
		}
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	lg := slog.New(handler)
	if file == nil && path != "" {
		lg.Warn("log file open failed; using stdout only", "path", path)
	}
	return &DualLogger{Logger: lg, file: file}
}

// Close releases the logfile if one was opened.
func (d *DualLogger) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

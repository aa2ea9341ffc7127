package help

import (
	"io"
	"log/slog"
)

// Logger returns a logger that drops everything. Integration tests assert
// on behavior, not log output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

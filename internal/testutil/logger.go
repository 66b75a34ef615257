package testutil

import (
	"io"
	"log/slog"
	"testing"
)

// Logger returns a quiet logger for tests (warn and above are discarded too;
// use t.Log-based capture when output matters).
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

package dbmanager

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/lmittmann/tint"
)

var logger *slog.Logger

func TestMain(m *testing.M) {
	verbose := false
	for _, arg := range os.Args {
		if arg == "-test.v=true" || arg == "-v" {
			verbose = true
		}
	}
	if verbose {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	os.Exit(m.Run())
}

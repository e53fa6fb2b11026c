package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mzarei/taskboard/internal/auth"
	"github.com/mzarei/taskboard/internal/board"
	"github.com/mzarei/taskboard/internal/config"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/store"
	"github.com/mzarei/taskboard/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("taskboard %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	st, err := store.New(cfg.DataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data directory: %v\n", err)
		os.Exit(1)
	}
	index, err := identity.Open(st, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading identity index: %v\n", err)
		os.Exit(1)
	}

	authService := auth.NewService(st, index, auth.NewVerifier(), logger)
	boards := board.NewService(st, index, logger)

	app := ui.NewApp(authService, boards, index)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds a file-backed zap logger; the TUI owns the terminal,
// so nothing may log to stdout or stderr.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	level := zap.InfoLevel
	if cfg.Debug {
		level = zap.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.LogFile}
	zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

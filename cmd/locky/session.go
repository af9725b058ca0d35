package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/db"
	"github.com/hpungsan/locky/internal/describe"
	"github.com/hpungsan/locky/internal/logging"
	"github.com/hpungsan/locky/internal/selector"
	"github.com/hpungsan/locky/internal/vault"
)

// session holds what a command needs. Resources are opened on first use
// so that help and usage never touch the vault.
type session struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	logger    *zap.Logger
	db        *sql.DB
	vault     *vault.Manager
	describer describe.Describer

	// newSelector builds the interactive chooser; replaced in tests.
	newSelector func(opts selector.Options) (selector.Selector, error)

	// executable is the command fzf runs for previews.
	executable string
}

func newSession(cfg *config.Config) *session {
	s := &session{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
	s.newSelector = func(opts selector.Options) (selector.Selector, error) {
		return selector.New(s.cfg, opts)
	}
	if exe, err := os.Executable(); err == nil {
		s.executable = exe
	} else {
		s.executable = "locky"
	}
	return s
}

// open initializes the logger, metadata store and vault manager.
func (s *session) open(verbose bool) error {
	if s.logger == nil {
		logger, err := logging.New(s.cfg.Log, verbose)
		if err != nil {
			return err
		}
		s.logger = logger
	}

	if s.vault != nil {
		return nil
	}

	database, err := db.Init(s.cfg.DBPath)
	if err != nil {
		return err
	}
	db.ConfigurePool(database, s.cfg)
	s.db = database

	s.vault = vault.New(s.cfg, database,
		vault.WithPrompter(vault.NewStdinPrompter(s.stdin, s.stderr)),
		vault.WithLogger(s.logger),
	)
	s.logger.Debug("session opened",
		zap.String("vault_dir", s.cfg.VaultDir),
		zap.String("db_path", s.cfg.DBPath),
	)
	return nil
}

// describerFor returns the configured describer, choosing it on first use.
// A provider that cannot be set up falls back to Baseline with a warning,
// so description never fails a command.
func (s *session) describerFor(ctx context.Context) describe.Describer {
	if s.describer != nil {
		return s.describer
	}
	d, err := describe.Select(ctx, s.cfg.Describer, s.getenv, s.logger)
	if err != nil {
		s.logger.Warn("describer unavailable, using baseline", zap.Error(err))
		fmt.Fprintf(s.stderr, "warning: %v; using built-in descriptions\n", err)
		d = describe.Baseline{MaxBytes: s.cfg.Describer.MaxBytes}
	}
	s.logger.Debug("describer selected", zap.String("provider", describe.Name(d)))
	s.describer = d
	return d
}

// close releases what open acquired. Safe to call more than once.
func (s *session) close() {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// Package vault keeps the vault directory and the metadata store in
// agreement across add, paste, remove and re-add.
package vault

import (
	"context"
	stderrors "errors"
	"database/sql"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/db"
	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/record"
)

// Manager orchestrates vault operations over the filesystem and the
// metadata store. It holds no open transaction between calls.
type Manager struct {
	cfg      *config.Config
	db       *sql.DB
	prompter Prompter
	logger   *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithPrompter sets the overwrite prompter. The default declines every
// overwrite.
func WithPrompter(p Prompter) Option {
	return func(m *Manager) { m.prompter = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a Manager for the vault described by cfg.
func New(cfg *config.Config, database *sql.DB, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		db:       database,
		prompter: AlwaysPrompter(false),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.prompter == nil {
		m.prompter = AlwaysPrompter(false)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// WithPrompter returns a copy of m that asks p before overwriting.
func (m *Manager) WithPrompter(p Prompter) *Manager {
	clone := *m
	if p == nil {
		p = AlwaysPrompter(false)
	}
	clone.prompter = p
	return &clone
}

// VaultDir returns the directory holding stored copies.
func (m *Manager) VaultDir() string {
	return m.cfg.VaultDir
}

// Path returns the vault path of filename after validating it.
func (m *Manager) Path(filename string) (string, error) {
	if err := record.ValidateFilename(filename); err != nil {
		return "", err
	}
	return filepath.Join(m.cfg.VaultDir, filename), nil
}

// Record returns the metadata record for filename.
func (m *Manager) Record(ctx context.Context, filename string) (*record.FileRecord, error) {
	if err := record.ValidateFilename(filename); err != nil {
		return nil, err
	}
	return db.GetRecord(ctx, m.db, filename)
}

// Description returns the stored description of filename, or nil.
func (m *Manager) Description(ctx context.Context, filename string) (*string, error) {
	if err := record.ValidateFilename(filename); err != nil {
		return nil, err
	}
	return db.GetDescription(ctx, m.db, filename)
}

// SetDescription stores description for filename.
func (m *Manager) SetDescription(ctx context.Context, filename, description string) error {
	return db.SetDescription(ctx, m.db, filename, description)
}

// isReserved reports whether name belongs to the metadata database.
func (m *Manager) isReserved(name string) bool {
	return slices.Contains(m.cfg.ReservedNames(), name)
}

// FileFault records a per-file failure inside a batch operation.
type FileFault struct {
	Filename string           `json:"filename"`
	Code     errors.ErrorCode `json:"code"`
	Message  string           `json:"message"`
}

// faultFor converts err into a FileFault for filename.
func faultFor(filename string, err error) FileFault {
	f := FileFault{Filename: filename, Code: errors.ErrInternal, Message: err.Error()}
	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		f.Code = vErr.Code
		f.Message = vErr.Message
	}
	return f
}

// cancelRemaining returns a CANCELLED fault for every name in names.
func cancelRemaining(names []string, operation string) []FileFault {
	faults := make([]FileFault, 0, len(names))
	for _, name := range names {
		faults = append(faults, faultFor(name, errors.NewCancelled(operation)))
	}
	return faults
}

// checkContext returns CANCELLED when ctx is done.
func checkContext(ctx context.Context, operation string) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(operation)
	}
	return nil
}

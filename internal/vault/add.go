package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/db"
	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/record"
	"github.com/hpungsan/locky/internal/storage"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	SourcePath string
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Added     bool   `json:"added"`
	Declined  bool   `json:"declined,omitempty"`
	Replaced  bool   `json:"replaced,omitempty"`
}

// Add copies a file into the vault under its basename and records it.
//
// A missing or non-regular source is NOT_FOUND. When a file of the same
// name is already stored the prompter decides; a decline returns
// Declined with nothing changed. Metadata is written only after the copy
// succeeds, and an existing description is kept.
func (m *Manager) Add(ctx context.Context, input AddInput) (*AddOutput, error) {
	if err := checkContext(ctx, "add"); err != nil {
		return nil, err
	}
	if input.SourcePath == "" {
		return nil, errors.NewInvalidRequest("source path is required")
	}

	src, err := filepath.Abs(input.SourcePath)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid source path: %v", err))
	}
	if !storage.ExistsAsFile(src) {
		return nil, errors.NewNotFound(input.SourcePath)
	}

	name := record.Basename(src)
	if err := record.ValidateFilename(name); err != nil {
		return nil, err
	}
	if m.isReserved(name) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("'%s' is reserved for the vault metadata database", name))
	}

	dest := filepath.Join(m.cfg.VaultDir, name)
	out := &AddOutput{Filename: name, Path: dest}
	log := m.logger.With(zap.String("file", name), zap.String("source", src))

	switch {
	case storage.SameFile(src, dest):
		// Already the stored copy; only the metadata is refreshed
		log.Debug("source is the vault copy, refreshing metadata")
	case destinationExists(dest):
		if !m.prompter.Confirm(fmt.Sprintf("File '%s' already exists in vault. Overwrite?", name)) {
			log.Debug("overwrite declined")
			out.Declined = true
			return out, nil
		}
		out.Replaced = true
		fallthrough
	default:
		if err := checkContext(ctx, "add"); err != nil {
			return nil, err
		}
		if err := storage.CopyInto(src, dest, storage.PrivateDirPerm); err != nil {
			log.Warn("copy into vault failed", zap.Error(err))
			return nil, err
		}
	}

	// The copy is in place; the record follows it even if ctx is cancelled now
	size, err := storage.Size(dest)
	if err != nil {
		return nil, err
	}
	if err := db.Upsert(context.WithoutCancel(ctx), m.db, name, size); err != nil {
		return nil, err
	}

	out.SizeBytes = size
	out.Added = true
	log.Debug("added", zap.Int64("size_bytes", size), zap.Bool("replaced", out.Replaced))
	return out, nil
}

// destinationExists reports whether anything occupies path.
func destinationExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

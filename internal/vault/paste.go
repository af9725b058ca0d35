package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/record"
	"github.com/hpungsan/locky/internal/storage"
)

// PasteInput contains parameters for the Paste operation.
type PasteInput struct {
	Filenames []string
	DestDir   string // optional, default: current working directory
}

// PasteOutput contains the result of the Paste operation.
type PasteOutput struct {
	DestDir string      `json:"dest_dir"`
	Pasted  []string    `json:"pasted"`
	Skipped []string    `json:"skipped"`
	Faults  []FileFault `json:"faults,omitempty"`
}

// Paste copies stored files out of the vault into DestDir, in input order.
//
// Names with no stored copy are skipped silently, as are declined
// overwrites and destinations that are the vault copy itself. A failure on
// one file is collected in Faults and the batch continues. If ctx is
// cancelled mid-batch the names not yet reached get CANCELLED faults.
func (m *Manager) Paste(ctx context.Context, input PasteInput) (*PasteOutput, error) {
	destDir := input.DestDir
	if destDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to get working directory: %w", err))
		}
		destDir = wd
	}
	destDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid destination: %v", err))
	}

	out := &PasteOutput{
		DestDir: destDir,
		Pasted:  []string{},
		Skipped: []string{},
	}

	for i, name := range input.Filenames {
		if err := checkContext(ctx, "paste"); err != nil {
			m.logger.Debug("paste cancelled", zap.Int("remaining", len(input.Filenames)-i))
			out.Faults = append(out.Faults, cancelRemaining(input.Filenames[i:], "paste")...)
			break
		}

		log := m.logger.With(zap.String("file", name))
		if err := record.ValidateFilename(name); err != nil {
			out.Faults = append(out.Faults, faultFor(name, err))
			continue
		}

		src := filepath.Join(m.cfg.VaultDir, name)
		if !storage.ExistsAsFile(src) {
			log.Debug("not in vault, skipping")
			out.Skipped = append(out.Skipped, name)
			continue
		}

		dest := filepath.Join(destDir, name)
		if storage.SameFile(src, dest) {
			log.Debug("destination is the vault copy, skipping")
			out.Skipped = append(out.Skipped, name)
			continue
		}
		if destinationExists(dest) {
			if !m.prompter.Confirm(fmt.Sprintf("File '%s' already exists in %s. Overwrite?", name, destDir)) {
				log.Debug("overwrite declined")
				out.Skipped = append(out.Skipped, name)
				continue
			}
		}

		if err := storage.CopyInto(src, dest, storage.DefaultDirPerm); err != nil {
			log.Warn("paste failed", zap.Error(err))
			out.Faults = append(out.Faults, faultFor(name, err))
			continue
		}

		log.Debug("pasted", zap.String("dest", dest))
		out.Pasted = append(out.Pasted, name)
	}

	return out, nil
}

package vault

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/db"
	"github.com/hpungsan/locky/internal/record"
	"github.com/hpungsan/locky/internal/storage"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	Filenames []string
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	Removed []string    `json:"removed"`
	Faults  []FileFault `json:"faults,omitempty"`
}

// Remove deletes stored copies and their records. Names that were never
// added are still reported as removed. When the stored copy cannot be
// deleted its record is kept and the name is reported in Faults. If ctx
// is cancelled mid-batch the names not yet reached get CANCELLED faults.
func (m *Manager) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	out := &RemoveOutput{Removed: []string{}}

	for i, name := range input.Filenames {
		if err := checkContext(ctx, "remove"); err != nil {
			m.logger.Debug("remove cancelled", zap.Int("remaining", len(input.Filenames)-i))
			out.Faults = append(out.Faults, cancelRemaining(input.Filenames[i:], "remove")...)
			break
		}

		log := m.logger.With(zap.String("file", name))
		if err := record.ValidateFilename(name); err != nil {
			out.Faults = append(out.Faults, faultFor(name, err))
			continue
		}

		if err := storage.Delete(filepath.Join(m.cfg.VaultDir, name)); err != nil {
			log.Warn("delete from vault failed, keeping record", zap.Error(err))
			out.Faults = append(out.Faults, faultFor(name, err))
			continue
		}
		// The stored copy is gone; drop its record even if ctx is cancelled now
		if err := db.Delete(context.WithoutCancel(ctx), m.db, name); err != nil {
			log.Warn("delete record failed", zap.Error(err))
			out.Faults = append(out.Faults, faultFor(name, err))
			continue
		}

		log.Debug("removed")
		out.Removed = append(out.Removed, name)
	}

	return out, nil
}

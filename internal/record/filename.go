package record

import (
	"path/filepath"
	"strings"

	"github.com/hpungsan/locky/internal/errors"
)

// ValidateFilename checks that name can identify a vault entry: a plain
// basename with no path separators, control characters, or dot segments.
func ValidateFilename(name string) error {
	if name == "" {
		return errors.NewInvalidRequest("filename is required")
	}
	if name == "." || name == ".." {
		return errors.NewInvalidRequest("filename must not be a dot segment")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.NewInvalidRequest("filename must not contain path separators: " + name)
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return errors.NewInvalidRequest("filename must not contain control characters")
		}
	}
	return nil
}

// Basename returns the vault filename for a source path.
func Basename(path string) string {
	return filepath.Base(filepath.Clean(path))
}

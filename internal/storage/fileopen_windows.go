//go:build windows

package storage

import (
	"os"
)

// openFileNoFollow opens a file for writing.
// On Windows, O_NOFOLLOW is not available. Symlink creation needs elevated
// privileges there, and the temp name is unpredictable.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

// replaceFile renames tmp over dst. os.Rename fails on Windows when dst
// exists, so an existing dst is removed first. This leaves a short window
// where dst is missing; the new content is already durable in tmp.
func replaceFile(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err == nil {
		return nil
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmp, dst)
}

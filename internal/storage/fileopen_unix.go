//go:build !windows

package storage

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/locky/internal/errors"
)

// openFileNoFollow opens a file for writing with O_NOFOLLOW so a symlink
// planted at the temp path is never written through. O_CLOEXEC prevents FD
// leaks across exec (the fzf selector runs a subprocess).
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink: " + path)
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

// replaceFile renames tmp over dst.
func replaceFile(tmp, dst string) error {
	return os.Rename(tmp, dst)
}

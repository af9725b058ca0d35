// Package storage holds the filesystem side of the vault: existence checks,
// atomic copies and deletes. It knows nothing about metadata.
package storage

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/locky/internal/errors"
)

var errIsDir = stderrors.New("is a directory")

// ExistsAsFile reports whether path names an existing regular file.
// Symlinks are followed; directories and missing paths report false.
func ExistsAsFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// SameFile reports whether a and b both exist and refer to the same file.
func SameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// Size returns the size in bytes of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFound(path)
		}
		return 0, errors.NewStorageFault("stat", path, err)
	}
	return info.Size(), nil
}

// Directory modes for CopyInto. The process umask still applies.
const (
	PrivateDirPerm os.FileMode = 0700 // the vault itself
	DefaultDirPerm os.FileMode = 0777 // paste destinations
)

// CopyInto copies src to dst, creating dst's parent directory with dirPerm
// as needed and carrying over permission bits and modification time.
//
// Content is written to a hidden temp file next to dst and renamed into
// place, so a failed copy never leaves a truncated dst behind. Copying a
// file onto itself is a no-op.
func CopyInto(src, dst string, dirPerm os.FileMode) error {
	if SameFile(src, dst) {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound(src)
		}
		return errors.NewStorageFault("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.NewStorageFault("stat", src, err)
	}
	if !info.Mode().IsRegular() {
		return errors.NewInvalidRequest("not a regular file: " + src)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.NewStorageFault("mkdir", dir, err)
	}

	tempPath := filepath.Join(dir, "."+filepath.Base(dst)+"."+ulid.Make().String()+".tmp")
	out, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return err
		}
		return errors.NewStorageFault("create", tempPath, err)
	}

	// Clean up the temp file on failure (an existing dst is preserved)
	success := false
	defer func() {
		if out != nil {
			out.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return errors.NewStorageFault("copy", src, err)
	}
	if err := out.Sync(); err != nil {
		return errors.NewStorageFault("sync", tempPath, err)
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		return errors.NewStorageFault("chmod", tempPath, err)
	}

	// Close before rename (required on Windows; fine elsewhere)
	if err := out.Close(); err != nil {
		return errors.NewStorageFault("close", tempPath, err)
	}
	out = nil

	mtime := info.ModTime()
	if err := os.Chtimes(tempPath, mtime, mtime); err != nil {
		return errors.NewStorageFault("chtimes", tempPath, err)
	}

	if err := replaceFile(tempPath, dst); err != nil {
		return errors.NewStorageFault("rename", dst, err)
	}

	success = true
	return nil
}

// Delete removes the file at path. A missing file is not an error.
func Delete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewStorageFault("stat", path, err)
	}
	if info.IsDir() {
		return errors.NewStorageFault("delete", path, &os.PathError{Op: "remove", Path: path, Err: errIsDir})
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageFault("delete", path, err)
	}
	return nil
}

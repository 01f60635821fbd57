// Package fileutil holds the filesystem primitives used to build the library
// tree.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile streams src to a new file at dst and returns the number of bytes
// written. dst is created exclusively: if it already exists the returned
// error satisfies errors.Is(err, fs.ErrExist) and nothing is written. A copy
// that fails part-way removes the partial destination.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return n, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return n, err
	}
	return n, nil
}

// EnsureDir creates the single directory path if it does not exist. The parent
// must already exist. An existing non-directory at path is an error.
func EnsureDir(path string) error {
	err := os.Mkdir(path, 0o755)
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		return statErr
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	return nil
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CountEntries returns the number of entries in dir. A missing dir has zero.
func CountEntries(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(entries), nil
}

var safePathReplacer = strings.NewReplacer(
	"\x00", "",
	string(filepath.Separator), " ",
	"/", " ",
)

// SafePath makes s usable as a single path component.
func SafePath(s string) string {
	s = safePathReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	switch s {
	case ".", "..":
		return ""
	}
	return s
}

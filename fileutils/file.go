package fileutils

import (
	"errors"
	"io/fs"
	"os"
)

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

package emlwriter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stupid-simple/emlapp/fileutils"
)

// Returns archive writer helper that creates a temporary file next to path upon
// first write and moves it into place on Commit.
func NewLazyFile(path string, overwrite bool) *File {
	return &File{
		path: path,
		sync: true,
		lazyOpenFunc: func() (*os.File, error) {
			return openTempFile(path, overwrite)
		},
		commitFunc: func(tmp *os.File, perm os.FileMode) error {
			return commitTempFile(tmp, path, perm, overwrite)
		},
		delFunc: func(tmp *os.File) error {
			return os.Remove(tmp.Name())
		},
	}
}

// Returns archive writer helper that opens the null device upon first write.
func NewNullFile(path string) *File {
	return &File{
		path:         path,
		lazyOpenFunc: openNullFile,
		commitFunc:   func(*os.File, os.FileMode) error { return nil },
		delFunc:      func(*os.File) error { return nil },
	}
}

type File struct {
	init         bool
	done         bool
	sync         bool
	path         string
	file         *os.File
	written      int64
	lazyOpenFunc func() (*os.File, error)
	commitFunc   func(tmp *os.File, perm os.FileMode) error
	delFunc      func(tmp *os.File) error
}

// Path returns the final path of the archive.
func (f *File) Path() string {
	return f.path
}

func (f *File) Written() int64 {
	return f.written
}

func (f *File) Write(p []byte) (int, error) {
	if f.done {
		return 0, fmt.Errorf("archive already closed: %s", f.path)
	}
	if err := f.open(); err != nil {
		return 0, err
	}
	n, err := f.file.Write(p)
	f.written += int64(n)
	return n, err
}

// Commit flushes the file and moves it to its final path with the given
// permissions. An archive that was never written is committed empty.
func (f *File) Commit(perm os.FileMode) error {
	if f.done {
		return nil
	}
	if err := f.open(); err != nil {
		return err
	}
	f.done = true

	if f.sync {
		if err := f.file.Sync(); err != nil {
			return errors.Join(err, f.file.Close(), f.delFunc(f.file))
		}
	}
	if err := f.file.Close(); err != nil {
		return errors.Join(err, f.delFunc(f.file))
	}
	if err := f.commitFunc(f.file, perm); err != nil {
		return errors.Join(err, f.delFunc(f.file))
	}
	return nil
}

// Abort closes and deletes the temporary file if it was opened.
func (f *File) Abort() error {
	if !f.init || f.done {
		return nil
	}
	f.done = true
	return errors.Join(f.file.Close(), f.delFunc(f.file))
}

func (f *File) open() error {
	if f.init {
		return nil
	}
	var err error
	f.file, err = f.lazyOpenFunc()
	if err != nil {
		return err
	}
	f.init = true
	return nil
}

func openNullFile() (*os.File, error) {
	return os.OpenFile(os.DevNull, os.O_WRONLY, 0600)
}

func openTempFile(path string, overwrite bool) (*os.File, error) {
	if !overwrite && fileutils.Exists(path) {
		return nil, fmt.Errorf("file or directory already exists with this name: %s", path)
	}

	return os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
}

func commitTempFile(tmp *os.File, path string, perm os.FileMode, overwrite bool) error {
	if !overwrite && fileutils.Exists(path) {
		return fmt.Errorf("file or directory already exists with this name: %s", path)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

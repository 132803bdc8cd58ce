package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Assets are held in memory while an archive is built.
const maxAssetBytes = 1 << 30

var ErrMaxSizeExceeded = errors.New("asset exceeds maximum size")

func NewFromFS(path string, info fs.FileInfo) (File, error) {
	mode := info.Mode()
	if !mode.IsRegular() {
		return File{}, errors.New("not a regular file")
	}

	if info.Size() > maxAssetBytes {
		return File{}, fmt.Errorf("%w: current size %d, maximum %d", ErrMaxSizeExceeded, info.Size(), maxAssetBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	f := New(filepath.Base(path), data)
	f.ModTime = info.ModTime()
	return f, nil
}

package asset_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stupid-simple/emlapp/asset"
)

var data = []byte("hello world")

func TestNewFromFS(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "hello.txt")
	err := os.WriteFile(testPath, data, 0600)
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(testPath)
	if err != nil {
		t.Fatal(err)
	}

	a, err := asset.NewFromFS(testPath, info)
	if err != nil {
		t.Fatal(err)
	}

	if a.Name != "hello.txt" {
		t.Errorf("expected name hello.txt, got %s", a.Name)
	}
	if a.Size() != 11 {
		t.Errorf("expected size 11, got %d", a.Size())
	}
	if a.ModTime != info.ModTime() {
		t.Errorf("expected mod time %s, got %s", info.ModTime(), a.ModTime)
	}
	if a.MediaType != "text/plain" {
		t.Errorf("expected media type text/plain, got %s", a.MediaType)
	}
	if a.Kind != asset.Text {
		t.Errorf("expected kind text, got %s", a.Kind)
	}
	if a.Hash() != 0x45ab6734b21e6968 {
		t.Errorf("expected hash 0x45ab6734b21e6968, got %x", a.Hash())
	}
}

func TestNewFromFS_TooLarge(t *testing.T) {
	testPath := filepath.Join(t.TempDir(), "hello.txt")
	err := os.WriteFile(testPath, data, 0600)
	if err != nil {
		t.Fatal(err)
	}

	_, err = asset.NewFromFS(testPath, fakeFileInfo{name: "hello.txt", size: 1<<30 + 1})
	if !errors.Is(err, asset.ErrMaxSizeExceeded) {
		t.Errorf("expected ErrMaxSizeExceeded, got %v", err)
	}
}

func TestNewFromFS_NotRegular(t *testing.T) {
	_, err := asset.NewFromFS(t.TempDir(), fakeFileInfo{name: "dir", mode: fs.ModeDir})
	if err == nil {
		t.Error("expected error")
	}
}

type fakeFileInfo struct {
	name string
	size int64
	mode fs.FileMode
}

// IsDir implements fs.FileInfo.
func (f fakeFileInfo) IsDir() bool {
	return f.mode.IsDir()
}

// ModTime implements fs.FileInfo.
func (f fakeFileInfo) ModTime() time.Time {
	return time.Time{}
}

// Mode implements fs.FileInfo.
func (f fakeFileInfo) Mode() fs.FileMode {
	return f.mode
}

// Sys implements fs.FileInfo.
func (f fakeFileInfo) Sys() any {
	panic("unimplemented")
}

func (f fakeFileInfo) Name() string {
	return f.name
}

func (f fakeFileInfo) Size() int64 {
	return f.size
}

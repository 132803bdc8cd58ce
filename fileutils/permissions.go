package fileutils

import (
	"fmt"
	"os"
)

// VerifyWritableDir returns nil if dirPath is a directory a file can be
// created in.
func VerifyWritableDir(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}

	fil, err := os.CreateTemp(dirPath, ".emlapp-probe-")
	if err != nil {
		return err
	}
	err = fil.Close()
	if err != nil {
		return err
	}
	return os.Remove(fil.Name())
}

package asset

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ScanDirectory yields the regular, non-hidden files directly inside dirPath
// in lexical order, following symbolic links. Sub-directories are not
// descended into: archives are flat. A file that cannot be read is yielded
// as an error with its path; the scan goes on if the caller keeps iterating.
func ScanDirectory(ctx context.Context, dirPath string, logger zerolog.Logger) (iter.Seq2[File, error], error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("could not read source directory: %w", err)
	}

	return func(yield func(File, error) bool) {
		var scannedCount int

		logger := logger.With().Str("dir", dirPath).Logger()
		logger.Debug().Int("entries", len(entries)).Msg("start scanning for assets")
		defer func() {
			logger.Debug().
				Int("scanned", scannedCount).
				Msg("done scanning assets")
		}()

		for _, d := range entries {
			if ctx.Err() != nil {
				return
			}
			if strings.HasPrefix(d.Name(), ".") {
				continue
			}

			path := filepath.Join(dirPath, d.Name())
			info, err := os.Stat(path)
			if err != nil {
				if !yield(File{}, fmt.Errorf("could not stat %s: %w", path, err)) {
					return
				}
				continue
			}
			if info.IsDir() {
				logger.Debug().Str("name", d.Name()).Msg("skipping sub-directory")
				continue
			}
			if !info.Mode().IsRegular() {
				logger.Debug().Str("name", d.Name()).Msg("skipping special file")
				continue
			}

			f, err := NewFromFS(path, info)
			if err != nil {
				if !yield(File{}, fmt.Errorf("could not read %s: %w", path, err)) {
					return
				}
				continue
			}

			scannedCount++
			logger.Debug().Object("asset", f).Msg("scanned asset")
			if !yield(f, nil) {
				return
			}
		}
	}, nil
}

// ReadDirectory returns every file ScanDirectory yields. It fails on the
// first file that cannot be read, so no asset is silently left out.
func ReadDirectory(ctx context.Context, dirPath string, logger zerolog.Logger) ([]File, error) {
	scanned, err := ScanDirectory(ctx, dirPath, logger)
	if err != nil {
		return nil, err
	}

	var files []File
	for f, err := range scanned {
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return files, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/launcher"
)

const tempDirPattern = "webapp_"

func extractCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	_, files, dir, err := extractArchive(ctx, args.Extract.Archive, args.Extract.Dir, args.MaxArchiveSize.Size, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("dir", dir).Int("files", len(files)).Msg("extracted archive")
	notifier := &launcher.Notifier{Logger: logger}
	notifier.Notify(ctx, "emlapp", fmt.Sprintf("Extracted %d files to %s", len(files), dir))
	return nil
}

// extractArchive parses an archive once and extracts it into dir, or into a
// new temporary directory when dir is empty. A temporary directory is removed
// again when extraction fails.
func extractArchive(
	ctx context.Context,
	archivePath string,
	dir string,
	maxArchiveBytes int64,
	logger zerolog.Logger,
) (*emlarchive.Envelope, []emlarchive.ExtractedFile, string, error) {
	temporary := dir == ""
	if temporary {
		var err error
		dir, err = os.MkdirTemp("", tempDirPattern)
		if err != nil {
			return nil, nil, "", fmt.Errorf("could not create temporary directory: %w", err)
		}
	}

	env, files, err := emlarchive.ExtractFile(ctx, archivePath, dir, logger,
		emlarchive.WithMaxArchiveBytes(maxArchiveBytes))
	if err != nil {
		if temporary {
			err = errors.Join(err, os.RemoveAll(dir))
		}
		return nil, nil, "", err
	}
	if ctx.Err() != nil {
		return nil, nil, "", ctx.Err()
	}
	return env, files, dir, nil
}

// entryPoint picks the file a browser should open: index.html, or the first
// markup file.
func entryPoint(files []emlarchive.ExtractedFile) (emlarchive.ExtractedFile, bool) {
	for _, f := range files {
		if f.AssignedName == emlarchive.EntryPointName {
			return f, true
		}
	}
	for _, f := range files {
		if f.IsMarkup() {
			return f, true
		}
	}
	return emlarchive.ExtractedFile{}, false
}

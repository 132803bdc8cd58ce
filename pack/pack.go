// Package pack turns an application directory into an archive file and
// records it in the catalogue.
package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/asset"
	"github.com/stupid-simple/emlapp/database"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/fileutils"
)

type PackParams struct {
	SourcePath string
	OutputPath string
	Prelude    string             // empty for the default launcher
	DB         *database.Database // optional
	Logger     zerolog.Logger
}

// PackSource builds the archive of a source directory and writes it to the
// output path. It returns a nil result without error when the build was
// skipped because nothing changed.
func PackSource(ctx context.Context, params PackParams, opts ...Option) (*emlarchive.BuildResult, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	sourcePath, err := filepath.Abs(params.SourcePath)
	if err != nil {
		return nil, err
	}
	outputPath, err := filepath.Abs(params.OutputPath)
	if err != nil {
		return nil, err
	}

	logger := params.Logger
	if o.dryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}
	startTime := time.Now()
	logger.Info().Str("source", sourcePath).Str("dest", outputPath).Msg("starting pack")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Str("source", sourcePath).Str("dest", outputPath).Float64("seconds", tookSeconds).Msg("pack cancelled")
		} else {
			logger.Info().Str("source", sourcePath).Str("dest", outputPath).Float64("seconds", tookSeconds).Msg("pack done")
		}
	}()

	outputDir := filepath.Dir(outputPath)
	if outputDir == sourcePath {
		return nil, fmt.Errorf("output must not be inside the source directory: %s", outputPath)
	}
	if err = fileutils.VerifyWritableDir(outputDir); err != nil {
		return nil, fmt.Errorf("dest path must be writable: %w", err)
	}

	var src *database.AppSource
	if params.DB != nil {
		src, err = params.DB.GetSource(ctx, sourcePath)
		if err != nil {
			return nil, err
		}
	}

	if o.onlyIfChanged && src != nil && fileutils.Exists(outputPath) {
		scanned, err := asset.ReadDirectory(ctx, sourcePath, logger)
		if err != nil {
			return nil, err
		}
		changed, err := src.HasChanges(ctx, slices.Values(scanned))
		if err != nil {
			return nil, err
		}
		if !changed {
			logger.Info().Str("source", sourcePath).Msg("source unchanged since last archive, skipping")
			return nil, nil
		}
	}

	result, err := emlarchive.Build(ctx, sourcePath, params.Prelude, logger,
		emlarchive.WithDryRun(o.dryRun),
		emlarchive.WithAppName(o.appName),
		emlarchive.WithBoundary(o.boundary),
	)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if o.maxArchiveBytes > 0 && int64(len(result.Data)) > o.maxArchiveBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", emlarchive.ErrArchiveTooLarge, len(result.Data), o.maxArchiveBytes)
	}

	err = emlarchive.WriteFile(ctx, result, outputPath, logger,
		emlarchive.WithOverwrite(o.overwrite),
		emlarchive.WithWriteDryRun(o.dryRun),
	)
	if err != nil {
		return nil, err
	}

	if src != nil {
		if err := src.RecordArchive(ctx, toBuiltArchive(outputPath, result)); err != nil {
			return result, fmt.Errorf("could not record archive: %w", err)
		}
	}

	return result, nil
}

// LoadPrelude reads a custom launcher script. An empty path selects the
// default launcher.
func LoadPrelude(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read prelude: %w", err)
	}
	return string(raw), nil
}

func toBuiltArchive(path string, r *emlarchive.BuildResult) database.BuiltArchive {
	a := database.BuiltArchive{
		Path:      path,
		AppName:   r.AppName,
		Boundary:  r.Boundary,
		Size:      int64(len(r.Data)),
		CreatedAt: r.Created,
		Parts:     make([]database.BuiltPart, 0, len(r.Manifest.Entries)),
	}
	for _, e := range r.Manifest.Entries {
		a.Parts = append(a.Parts, database.BuiltPart{
			Name:      e.File.Name,
			ContentID: e.ContentID,
			MediaType: e.File.MediaType,
			Encoding:  string(e.Encoding),
			Size:      e.File.Size(),
			Hash:      e.File.Hash(),
			ModTime:   e.File.ModTime,
		})
	}
	return a
}

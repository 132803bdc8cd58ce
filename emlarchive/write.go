package emlarchive

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/emlarchive/emlwriter"
)

const archivePerm = 0o755

// WriteFile stores a built archive at path, marked executable. The file
// appears complete or not at all.
func WriteFile(ctx context.Context, r *BuildResult, path string, logger zerolog.Logger, opts ...WriteOption) error {
	o := writeOptions{}
	for _, applyOpts := range opts {
		applyOpts(&o)
	}

	var f *emlwriter.File
	if o.dryRun {
		f = emlwriter.NewNullFile(path)
	} else {
		f = emlwriter.NewLazyFile(path, o.overwrite)
	}

	logger = logger.With().Str("path", f.Path()).Logger()
	start := time.Now()

	if _, err := f.Write(r.Data); err != nil {
		logger.Warn().Err(err).Msg("could not write archive file")
		return errors.Join(err, f.Abort())
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(err, f.Abort())
	}
	if err := f.Commit(archivePerm); err != nil {
		logger.Warn().Err(err).Msg("could not write archive file")
		return err
	}

	logger.Info().
		Int64("size", f.Written()).
		Bool("dry_run", o.dryRun).
		Float64("seconds", time.Since(start).Seconds()).
		Msg("successfully written archive file")
	return nil
}

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/database"
	"github.com/stupid-simple/emlapp/pack"
)

func buildCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Build.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	prelude, err := pack.LoadPrelude(args.Build.Prelude)
	if err != nil {
		return err
	}

	var db *database.Database
	if args.Build.Database != "" {
		db, err = openDatabase(args.Build.Database, logger, args.Build.DryRun)
		if err != nil {
			return err
		}
	}

	result, err := pack.PackSource(
		ctx,
		pack.PackParams{
			SourcePath: args.Build.Source,
			OutputPath: args.Build.Output,
			Prelude:    prelude,
			DB:         db,
			Logger:     logger,
		},
		pack.WithDryRun(args.Build.DryRun),
		pack.WithOverwrite(args.Build.Force),
		pack.WithAppName(args.Build.Name),
		pack.WithBoundary(args.Build.Boundary),
		pack.WithMaxArchiveBytes(args.MaxArchiveSize.Size),
	)
	if err != nil {
		return err
	}

	logger.Info().Object("archive", result).Str("path", args.Build.Output).Msg("archive built")
	return nil
}

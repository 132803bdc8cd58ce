package main

import (
	"context"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/database"
)

func listCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	db, err := openDatabase(args.List.Database, logger, false)
	if err != nil {
		return err
	}

	opts := []database.FindArchivesOptions{
		database.WithFindArchivesLimit(args.List.Limit),
	}
	if args.List.Source != "" {
		sourcePath, err := filepath.Abs(args.List.Source)
		if err != nil {
			return err
		}
		opts = append(opts, database.WithFindArchivesSource(sourcePath))
	}
	if args.List.BySize {
		opts = append(opts, database.WithFindArchivesOrderBy(database.FindArchivesOrderBySize))
	}

	archives, err := db.FindArchives(ctx, opts...)
	if err != nil {
		return err
	}

	count := 0
	for a := range archives {
		count++
		logger.Info().
			Object("archive", a).
			Str("human_size", units.HumanSize(float64(a.Size))).
			Msg("archive")
	}
	logger.Info().Int("count", count).Msg("listed archives")
	return nil
}

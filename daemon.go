package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/config"
	"github.com/stupid-simple/emlapp/database"
	"github.com/stupid-simple/emlapp/fileutils"
	"github.com/stupid-simple/emlapp/pack"
	"github.com/stupid-simple/emlapp/scheduler"
)

const configPollInterval = 30 * time.Second

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Daemon.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	cfg, err := config.LoadFromFile(args.Daemon.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	db, err := openDatabase(args.Daemon.Database, logger, args.Daemon.DryRun)
	if err != nil {
		return err
	}

	scheduler := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	addPackJobsFromConfig(ctx, scheduler, cfg, db, logger, args.Daemon.DryRun)

	ticker := time.NewTicker(configPollInterval)
	defer ticker.Stop()
	startConfigFileWatcher(ctx, args.Daemon.Config, logger, ticker, func(cfg *config.Config) {
		scheduler.RemoveJobs()
		addPackJobsFromConfig(ctx, scheduler, cfg, db, logger, args.Daemon.DryRun)
	})

	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()

	return nil
}

// addPackJobsFromConfig schedules one job per enabled source. Invalid,
// duplicate and disabled sources are logged and skipped.
func addPackJobsFromConfig(
	ctx context.Context,
	scheduler *scheduler.Scheduler,
	cfg *config.Config,
	db *database.Database,
	logger zerolog.Logger,
	dryRun bool,
) {
	sourceDirs := make(map[string]struct{})
	outputs := make(map[string]struct{})

	for _, source := range cfg.Sources {
		job, err := configSourceToPackJob(ctx, &source, db, logger, dryRun)
		if err != nil {
			logger.Warn().AnErr("cause", err).Object("source", source).Msg("skipping source")
			continue
		}

		if _, ok := sourceDirs[job.params.SourcePath]; ok {
			logger.Warn().Str("source", source.SourceDir).Msg("skipping duplicate source")
			continue
		}
		sourceDirs[job.params.SourcePath] = struct{}{}

		if _, ok := outputs[job.params.OutputPath]; ok {
			logger.Warn().Str("output", source.Output).Msg("skipping duplicate output")
			continue
		}
		outputs[job.params.OutputPath] = struct{}{}

		if !source.Enable {
			logger.Info().Str("source", source.SourceDir).Msg("skipping disabled source")
			continue
		}

		if err := scheduler.AddJob(ctx, source.Schedule, job); err != nil {
			logger.Error().Err(err).Str("source", source.SourceDir).Msg("could not add pack job")
			continue
		}

		logger.Info().
			Object("source", source).
			Msg("added pack job")
	}
}

func configSourceToPackJob(
	ctx context.Context,
	cfgSource *config.ConfigSource,
	db *database.Database,
	logger zerolog.Logger,
	dryRun bool,
) (*packJob, error) {
	if cfgSource.SourceDir == "" {
		return nil, fmt.Errorf("source must have a directory")
	}
	if cfgSource.Output == "" {
		return nil, fmt.Errorf("source must have an output")
	}
	if cfgSource.Schedule == "" {
		return nil, fmt.Errorf("source must have a schedule")
	}

	sourcePath, err := filepath.Abs(cfgSource.SourceDir)
	if err != nil {
		return nil, err
	}
	outputPath, err := filepath.Abs(cfgSource.Output)
	if err != nil {
		return nil, err
	}

	// The prelude is read once per schedule; a changed launcher script is
	// picked up when the config file is reloaded.
	prelude, err := pack.LoadPrelude(cfgSource.Prelude)
	if err != nil {
		return nil, err
	}

	return &packJob{
		ctx: ctx,
		params: pack.PackParams{
			SourcePath: sourcePath,
			OutputPath: outputPath,
			Prelude:    prelude,
			DB:         db,
			Logger:     logger,
		},
		opts: []pack.Option{
			pack.WithDryRun(dryRun),
			pack.WithOverwrite(true),
			pack.WithOnlyIfChanged(true),
			pack.WithAppName(cfgSource.Name),
			pack.WithMaxArchiveBytes(cfgSource.MaxArchiveSize.Size),
		},
	}, nil
}

func startConfigFileWatcher(ctx context.Context, cfgPath string, logger zerolog.Logger, ticker *time.Ticker, onChanged func(cfg *config.Config)) {
	logger.Info().Str("path", cfgPath).Msg("watching config file for changes")
	watcher, err := fileutils.WatchFile(ctx, cfgPath, when(ticker.C), func(err error) {
		logger.Error().Err(err).Msg("could not watch config file")
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not watch config file")
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher:
				if !ok {
					return
				}
				logger.Info().Str("path", cfgPath).Msg("config file changed, reloading")

				cfg, err := config.LoadFromFile(cfgPath)
				if err != nil {
					logger.Error().Err(err).Msg("could not load config")
					break
				}

				onChanged(cfg)
			}
		}
	}()
}

func when[T any](ch <-chan T) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
			out <- struct{}{}
		}
	}()
	return out
}

type packJob struct {
	ctx    context.Context
	params pack.PackParams
	opts   []pack.Option
}

func (j *packJob) Run() {
	_, err := pack.PackSource(j.ctx, j.params, j.opts...)
	if err != nil {
		j.params.Logger.Error().Err(err).
			Str("source", j.params.SourcePath).
			Str("output", j.params.OutputPath).
			Msg("pack job failed")
	}
}

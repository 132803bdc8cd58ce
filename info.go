package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/launcher"
)

var infoHeaders = []string{"Subject", "X-App-Type", "X-App-Name", "X-Generator", "X-Created"}

// infoCommand extracts an archive into a temporary directory to report on
// it, so any archive it accepts is one extract and run accept too.
func infoCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	env, files, dir, err := extractArchive(ctx, args.Info.Archive, "", args.MaxArchiveSize.Size, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("could not remove temporary directory")
		}
	}()

	var total int64
	for _, f := range files {
		total += f.Size
	}
	e := logger.Info().
		Str("archive", args.Info.Archive).
		Int("prelude_bytes", env.Offset).
		Str("boundary", env.Boundary).
		Int("parts", len(env.Parts)).
		Int("files", len(files)).
		Str("size", units.HumanSize(float64(total)))
	for _, h := range infoHeaders {
		if v := env.Header.Get(h); v != "" {
			e = e.Str(h, v)
		}
	}
	e.Msg("archive")

	var metadataPath string
	for _, f := range files {
		logger.Info().
			Object("file", f).
			Str("human_size", units.HumanSize(float64(f.Size))).
			Str("xxhash", fmt.Sprintf("%016x", f.Hash)).
			Msg("file")
		if f.AssignedName == emlarchive.MetadataName {
			metadataPath = f.Path
		}
	}

	runtime := &launcher.ContainerRuntime{Logger: logger}
	logger.Info().Bool("container_runtime", runtime.Available(ctx)).Msg("environment")

	if metadataPath == "" {
		return nil
	}
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("could not read metadata: %w", err)
	}
	meta, err := emlarchive.ParseMetadata(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args.Info.Archive, err)
	}
	logger.Info().
		Str("name", meta.Name).
		Str("version", meta.Version).
		Str("description", meta.Description).
		Time("created", meta.Created).
		Strs("files", meta.Files).
		Msg("metadata")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/emlarchive"
	"github.com/stupid-simple/emlapp/launcher"
)

const browserDelay = 3 * time.Second

func runCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	runtime := &launcher.ContainerRuntime{Logger: logger}
	if !runtime.Available(ctx) {
		return errors.New("docker is not available")
	}

	env, files, dir, err := extractArchive(ctx, args.Run.Archive, "", args.MaxArchiveSize.Size, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("could not remove extracted files")
		}
	}()

	hasDockerfile := slices.ContainsFunc(files, func(f emlarchive.ExtractedFile) bool {
		return f.AssignedName == emlarchive.DockerfileName
	})
	if !hasDockerfile {
		return fmt.Errorf("archive has no %s", emlarchive.DockerfileName)
	}

	image := imageName(args.Run.Archive)
	if err := runtime.Build(ctx, dir, image); err != nil {
		return err
	}

	url := "http://localhost:" + strconv.Itoa(args.Run.Port)
	notifier := &launcher.Notifier{Logger: logger}
	notifier.Notify(ctx, env.AppName(), "Container running on "+url)

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(browserDelay):
		}
		browser := &launcher.Browser{Logger: logger}
		if err := browser.Open(ctx, url); err != nil {
			logger.Warn().Err(err).Msg("could not open browser")
		}
	}()

	return runtime.Run(ctx, image, args.Run.Port)
}

// imageName derives an image name from an archive file name: lowercase,
// restricted to the characters image references allow.
func imageName(archivePath string) string {
	base := filepath.Base(archivePath)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), ".-_")
	if name == "" {
		name = "app"
	}
	return "webapp-" + name
}

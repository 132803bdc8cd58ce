package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stupid-simple/emlapp/launcher"
)

func browseCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	env, files, dir, err := extractArchive(ctx, args.Browse.Archive, "", args.MaxArchiveSize.Size, logger)
	if err != nil {
		return err
	}

	entry, ok := entryPoint(files)
	if !ok {
		return fmt.Errorf("archive has no markup file to open, files are in %s", dir)
	}

	browser := &launcher.Browser{Logger: logger}
	if err := browser.Open(ctx, entry.Path); err != nil {
		return err
	}

	notifier := &launcher.Notifier{Logger: logger}
	notifier.Notify(ctx, env.AppName(), "Opened "+entry.AssignedName+" in the browser")
	return nil
}

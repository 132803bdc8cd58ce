package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

var version = "dev"

func newLogger() zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: time.RFC3339}
	consoleWriter.TimeFormat = "[" + time.RFC3339 + "]"
	consoleWriter.PartsOrder = []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		zerolog.CallerFieldName,
		zerolog.MessageFieldName,
	}

	logger := zerolog.New(consoleWriter).
		With().Timestamp().Logger()

	level := zerolog.InfoLevel
	envLevel, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		parsed, err := zerolog.ParseLevel(envLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("could not parse environment variable LOG_LEVEL")
			return logger
		}
		level = parsed
	}

	return logger.Level(level)
}

func main() {
	args := Command{}
	cli := kong.Parse(&args,
		kong.Name("emlapp"),
		kong.Description("Pack a web application into a self-launching MIME archive, and unpack it again."),
		kong.UsageOnError(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignals(cancel)

	logger := newLogger()

	var err error
	command := strings.Fields(cli.Command())[0]
	switch command {
	case "build":
		err = buildCommand(ctx, args, logger)
	case "extract":
		err = extractCommand(ctx, args, logger)
	case "run":
		err = runCommand(ctx, args, logger)
	case "browse":
		err = browseCommand(ctx, args, logger)
	case "info":
		err = infoCommand(ctx, args, logger)
	case "list":
		err = listCommand(ctx, args, logger)
	case "daemon":
		err = daemonCommand(ctx, args, logger)
	case "help":
		err = cli.PrintUsage(false)
	case "version":
		logger.Info().Str("version", version).Msg("emlapp")
	default:
		panic(cli.Command())
	}
	if err != nil {
		logger.Error().Err(err).Msg(command + " error")
		cli.Exit(1)
	}
}

func setupSignals(onSignal func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		onSignal()
	}()
}

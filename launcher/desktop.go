package launcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Browser opens files and URLs with the desktop's default handler.
type Browser struct {
	Runner Runner
	GOOS   string
	Logger zerolog.Logger
}

func (b *Browser) Open(ctx context.Context, target string) error {
	var name string
	var args []string
	switch goosOr(b.GOOS) {
	case "darwin":
		name, args = "open", []string{target}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		name, args = "xdg-open", []string{target}
	}

	b.Logger.Info().Str("target", target).Msg("opening browser")
	if _, err := runnerOr(b.Runner).Output(ctx, name, args...); err != nil {
		return fmt.Errorf("could not open %s: %w", target, err)
	}
	return nil
}

// Notifier shows desktop notifications. Failures are logged and otherwise
// ignored.
type Notifier struct {
	Runner Runner
	GOOS   string
	Logger zerolog.Logger
}

func (n *Notifier) Notify(ctx context.Context, title string, message string) {
	logger := n.Logger.With().Str("title", title).Str("message", message).Logger()

	var name string
	var args []string
	switch goosOr(n.GOOS) {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(message), appleScriptString(title))
		name, args = "osascript", []string{"-e", script}
	case "windows":
		logger.Info().Msg("notification")
		return
	default:
		name, args = "notify-send", []string{title, message}
	}

	if _, err := runnerOr(n.Runner).Output(ctx, name, args...); err != nil {
		logger.Warn().Err(err).Msg("could not show notification")
		return
	}
	logger.Debug().Msg("notification shown")
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScriptString(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

package launcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	dockerBinary  = "docker"
	containerPort = 80
)

// ContainerRuntime builds and runs images with the docker CLI.
type ContainerRuntime struct {
	Runner Runner
	Binary string
	Logger zerolog.Logger
}

func (c *ContainerRuntime) binary() string {
	if c.Binary == "" {
		return dockerBinary
	}
	return c.Binary
}

// Available reports whether the runtime answers a version query.
func (c *ContainerRuntime) Available(ctx context.Context) bool {
	out, err := runnerOr(c.Runner).Output(ctx, c.binary(), "--version")
	if err != nil {
		c.Logger.Debug().Err(err).Msg("container runtime not available")
		return false
	}
	c.Logger.Debug().Str("version", strings.TrimSpace(string(out))).Msg("container runtime available")
	return true
}

// Build builds dir into an image tagged image.
func (c *ContainerRuntime) Build(ctx context.Context, dir string, image string) error {
	c.Logger.Info().Str("dir", dir).Str("image", image).Msg("building image")
	out, err := runnerOr(c.Runner).Output(ctx, c.binary(), "build", "-t", image, dir)
	if err != nil {
		return fmt.Errorf("could not build image %s: %w: %s", image, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Run runs image in the foreground, publishing the web server on hostPort.
// The container is removed when it stops.
func (c *ContainerRuntime) Run(ctx context.Context, image string, hostPort int) error {
	if hostPort <= 0 || hostPort > 65535 {
		return fmt.Errorf("invalid port %d", hostPort)
	}
	publish := strconv.Itoa(hostPort) + ":" + strconv.Itoa(containerPort)
	c.Logger.Info().Str("image", image).Int("port", hostPort).Msg("running container")
	if err := runnerOr(c.Runner).Attach(ctx, c.binary(), "run", "--rm", "-p", publish, image); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("could not run image %s: %w", image, err)
	}
	return nil
}

// Package launcher drives the programs an extracted application is handed
// to: the container runtime, the desktop browser and the notifier.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Runner executes external programs.
type Runner interface {
	// Output runs a program to completion and returns its combined output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Attach runs a program with the standard streams of this process.
	Attach(ctx context.Context, name string, args ...string) error
}

type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (ExecRunner) Attach(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func runnerOr(r Runner) Runner {
	if r == nil {
		return ExecRunner{}
	}
	return r
}

func goosOr(goos string) string {
	if goos == "" {
		return runtime.GOOS
	}
	return goos
}

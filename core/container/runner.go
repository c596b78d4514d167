package container

import (
	"context"
	"os/exec"

	"rom-manager/core/errors"
)

// Runner executes an external tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct{}

// Run executes name with args in dir. An empty dir inherits the process cwd.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// run invokes the runner and converts failures into a DecodeError for path.
func run(ctx context.Context, r Runner, path, dir, name string, args ...string) ([]byte, error) {
	out, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		return out, errors.NewDecodeError(path, append([]string{name}, args...), string(out), err)
	}
	return out, nil
}

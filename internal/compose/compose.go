// Package compose drives the deployment's container runtime through the
// docker binary, the same commands an operator would type in the compose
// project directory.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Minute

// Runner executes docker and docker compose commands for one deployment.
type Runner struct {
	// Dir is the compose project directory commands run in.
	Dir     string
	Timeout time.Duration
}

// Result carries a finished command's exit status and combined output.
type Result struct {
	ExitCode int
	Output   string
}

// Exec runs a command inside a container via docker exec. When stdin is
// non-nil the command's standard input is connected to it. A non-zero
// container exit status is returned in the Result, not as an error;
// errors mean the command could not be run at all.
func (r *Runner) Exec(ctx context.Context, container string, stdin io.Reader, command ...string) (*Result, error) {
	args := []string{"exec"}
	if stdin != nil {
		args = append(args, "-i")
	}
	args = append(args, container)
	args = append(args, command...)
	return r.run(ctx, stdin, "docker", args...)
}

// Compose runs a docker compose subcommand in the project directory and
// fails on any non-zero exit.
func (r *Runner) Compose(ctx context.Context, args ...string) error {
	res, err := r.run(ctx, nil, "docker", append([]string{"compose"}, args...)...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("docker compose %s failed (exit %d):\n%s",
			strings.Join(args, " "), res.ExitCode, res.Output)
	}
	return nil
}

// RemoveVolumes removes docker volumes. Missing volumes are not an error;
// a fresh deployment may never have created them.
func (r *Runner) RemoveVolumes(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	res, err := r.run(ctx, nil, "docker", append([]string{"volume", "rm"}, names...)...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 && !strings.Contains(res.Output, "no such volume") {
		return fmt.Errorf("docker volume rm failed (exit %d):\n%s", res.ExitCode, res.Output)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, stdin io.Reader, name string, args ...string) (*Result, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var output bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	result := &Result{Output: output.String()}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("command timed out after %v: %s %s", timeout, name, strings.Join(args, " "))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return result, nil
}

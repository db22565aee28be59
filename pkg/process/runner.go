/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	aoerrors "github.com/org/agent-orchestrator/pkg/errors"
)

// DefaultWaitDelay is how long a cancelled child gets to exit after the
// stop signal before it is killed.
const DefaultWaitDelay = 10 * time.Second

// RunnerConfig holds configuration for the exec runner.
type RunnerConfig struct {
	// Stdin, Stdout and Stderr are attached to streaming invocations.
	// Nil means the orchestrator's own standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Environ is the base environment for children. The zero value
	// snapshots os.Environ() when the runner is created.
	Environ *Environ

	// StopSignal is sent to the child when the context is cancelled.
	// Defaults to SIGTERM (a kill on Windows).
	StopSignal os.Signal

	// WaitDelay bounds how long Run waits after StopSignal before killing
	// the child and closing its pipes. Defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// ExecRunner runs invocations with os/exec, one at a time and to completion.
type ExecRunner struct {
	config  RunnerConfig
	environ Environ
}

// NewExecRunner creates a runner attached to the current terminal.
func NewExecRunner() *ExecRunner {
	return NewExecRunnerWithConfig(RunnerConfig{})
}

// NewExecRunnerWithConfig creates a runner with the given configuration.
func NewExecRunnerWithConfig(cfg RunnerConfig) *ExecRunner {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.StopSignal == nil {
		cfg.StopSignal = defaultStopSignal
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = DefaultWaitDelay
	}
	env := FromOS()
	if cfg.Environ != nil {
		env = *cfg.Environ
	}
	return &ExecRunner{config: cfg, environ: env}
}

// Run executes inv and waits for it to exit.
// There is no timeout. Cancelling ctx sends the child StopSignal; a child
// still running WaitDelay later is killed. Either way its exit code is
// returned.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	// #nosec G204 - Path and Args are built by the dispatcher from validated flags
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(r.config.StopSignal)
	}
	cmd.WaitDelay = r.config.WaitDelay
	cmd.Env = r.environ.Merge(inv.Overlay)

	var stdout, stderr bytes.Buffer
	if inv.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdin = r.config.Stdin
		cmd.Stdout = r.config.Stdout
		cmd.Stderr = r.config.Stderr
	}

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = ExitCode(exitErr.ProcessState)
			return result, nil
		}
		// The child ran but Wait reported something else, e.g. the context
		// was cancelled and the child still exited zero.
		if cmd.ProcessState != nil {
			result.ExitCode = ExitCode(cmd.ProcessState)
			return result, nil
		}
		return result, aoerrors.ExecFailed(err, inv.String())
	}
	return result, nil
}

// ExitCode extracts the exit status from a finished process.
// A child terminated by a signal reports 128+signal, as a shell would.
func ExitCode(state *os.ProcessState) int {
	if state == nil {
		return 1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

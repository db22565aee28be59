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

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/org/agent-orchestrator/internal/config"
	aoerrors "github.com/org/agent-orchestrator/pkg/errors"
	"github.com/org/agent-orchestrator/pkg/metrics"
	"github.com/org/agent-orchestrator/pkg/process"
)

// Exit statuses the dispatcher produces itself. Every other status is the
// child's own.
const (
	// ExitMissingScript is returned when spawn-pod.sh is not installed.
	ExitMissingScript = 1
	// ExitStartFailed is returned when a child process could not be started.
	ExitStartFailed = 1
	// ExitUsage is returned for invalid command input.
	ExitUsage = 2
)

// KubeOptions are kubectl connection overrides. Empty fields are not passed.
type KubeOptions struct {
	Kubeconfig string
	Context    string
	Namespace  string
}

// Options configures a Dispatcher.
type Options struct {
	// Config supplies script locations, binaries and naming.
	Config config.Config

	// Kube holds explicitly requested kubectl connection flags.
	Kube KubeOptions

	// Runner executes invocations. Defaults to a terminal-attached ExecRunner.
	Runner process.Runner

	// Stdout receives captured child output and dispatcher messages.
	Stdout io.Writer

	// Stderr receives start-failure messages.
	Stderr io.Writer

	// DryRun prints each planned command line instead of running it.
	DryRun bool

	// Log receives debug diagnostics.
	Log logr.Logger
}

// Dispatcher turns commands into process invocations.
type Dispatcher struct {
	config config.Config
	kube   KubeOptions
	runner process.Runner
	stdout io.Writer
	stderr io.Writer
	dryRun bool
	log    logr.Logger
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Runner == nil {
		opts.Runner = process.NewExecRunner()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Log.GetSink() == nil {
		opts.Log = logr.Discard()
	}
	return &Dispatcher{
		config: opts.Config,
		kube:   opts.Kube,
		runner: opts.Runner,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		dryRun: opts.DryRun,
		log:    opts.Log,
	}
}

// Plan builds the invocation for cmd without running it.
// It fails with a validation error for missing fields and a not-found error
// when spawn-pod.sh is absent.
func (d *Dispatcher) Plan(cmd Command) (process.Invocation, error) {
	if err := cmd.Validate(); err != nil {
		return process.Invocation{}, err
	}

	switch c := cmd.(type) {
	case Spawn:
		return d.planSpawn(c)
	case Status:
		return d.kubectl(true, "get", d.config.ResourceName(c.TaskID), "-o", "wide"), nil
	case Logs:
		return d.planLogs(c), nil
	case List:
		return d.kubectl(true, "get", "pods", "-l", d.config.LabelSelector, "-o", "wide"), nil
	default:
		return process.Invocation{}, aoerrors.Newf("unhandled command %T", cmd)
	}
}

func (d *Dispatcher) planSpawn(c Spawn) (process.Invocation, error) {
	script := d.config.SpawnScript()
	if !exists(script) {
		return process.Invocation{}, aoerrors.NotFound(config.SpawnScriptName, script)
	}

	contextDir := c.ContextDir
	if contextDir == "" {
		contextDir = "."
	}

	inv := d.script(script, c.TaskID, c.Branch, c.Repo, contextDir)
	if c.SSHSecret != "" {
		if inv.Overlay == nil {
			inv.Overlay = map[string]string{}
		}
		inv.Overlay[d.config.SSHSecretEnv] = c.SSHSecret
	}
	return inv, nil
}

func (d *Dispatcher) planLogs(c Logs) process.Invocation {
	resource := d.config.ResourceName(c.TaskID)
	if tail := d.config.TailScript(); exists(tail) {
		return d.script(tail, resource)
	}
	return d.kubectl(false, "logs", "-f", resource)
}

// script runs a companion script through the configured shell. Scripts see
// the kubeconfig override as KUBECONFIG; context and namespace are theirs
// to choose.
func (d *Dispatcher) script(path string, args ...string) process.Invocation {
	inv := process.Invocation{
		Path: d.config.Shell,
		Args: append([]string{path}, args...),
	}
	if d.kube.Kubeconfig != "" {
		inv.Overlay = map[string]string{"KUBECONFIG": d.kube.Kubeconfig}
	}
	return inv
}

// kubectl appends connection overrides after the fixed arguments.
func (d *Dispatcher) kubectl(capture bool, args ...string) process.Invocation {
	if d.kube.Kubeconfig != "" {
		args = append(args, "--kubeconfig", d.kube.Kubeconfig)
	}
	if d.kube.Context != "" {
		args = append(args, "--context", d.kube.Context)
	}
	if d.kube.Namespace != "" {
		args = append(args, "--namespace", d.kube.Namespace)
	}
	return process.Invocation{
		Path:    d.config.Kubectl,
		Args:    args,
		Capture: capture,
	}
}

// Run dispatches cmd and returns the exit status for the orchestrator.
//
// Validation errors are returned with ExitUsage for the caller to report
// alongside usage. Everything else is reported here and the returned error
// is nil: a missing spawn script prints "Error: spawn-pod.sh not found at
// <path>" and yields 1, a child that cannot be started yields 1, and a
// child that ran yields its own exit code. A Command implementation the
// dispatcher does not know, such as a pointer to a variant, is returned as
// an internal error with status 1.
func (d *Dispatcher) Run(ctx context.Context, cmd Command) (int, error) {
	timer := metrics.NewInvocationTimer(cmd.Name())

	inv, err := d.Plan(cmd)
	if err != nil {
		timer.RecordFailed()
		if aoerrors.IsValidation(err) {
			return ExitUsage, err
		}
		d.logError(err, "dispatch aborted", "command", cmd.Name())
		if aoerrors.IsNotFound(err) {
			_, _ = fmt.Fprintf(d.stdout, "Error: %v\n", err)
			return ExitMissingScript, nil
		}
		return ExitStartFailed, err
	}

	if d.dryRun {
		_, _ = fmt.Fprintln(d.stdout, inv.String())
		return 0, nil
	}

	d.log.V(1).Info("running", "command", cmd.Name(), "argv", inv.String(), "capture", inv.Capture)

	res, err := d.runner.Run(ctx, inv)
	if err != nil {
		timer.RecordFailed()
		d.logError(err, "child did not start", "command", cmd.Name())
		_, _ = fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return ExitStartFailed, nil
	}
	timer.RecordExit(res.ExitCode)

	if inv.Capture {
		_, _ = fmt.Fprintln(d.stdout, res.Output())
	}

	d.log.V(1).Info("child exited", "command", cmd.Name(), "exitCode", res.ExitCode)
	return res.ExitCode, nil
}

func (d *Dispatcher) logError(err error, msg string, kv ...any) {
	var de *aoerrors.DispatchError
	if errors.As(err, &de) {
		kv = append(kv, de.KeysAndValues()...)
		if trace := de.StackTrace(); trace != "" {
			kv = append(kv, "stack", trace)
		}
	}
	d.log.V(1).Info(msg, append(kv, "error", err.Error())...)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

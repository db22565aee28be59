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

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"

	"github.com/org/agent-orchestrator/internal/config"
	"github.com/org/agent-orchestrator/internal/logging"
	"github.com/org/agent-orchestrator/pkg/dispatch"
	aoerrors "github.com/org/agent-orchestrator/pkg/errors"
	"github.com/org/agent-orchestrator/pkg/metrics"
	"github.com/org/agent-orchestrator/pkg/process"
)

// App holds the process-level dependencies and flag values of one run.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Runner executes child processes. Nil means an exec runner attached
	// to the streams above.
	Runner process.Runner

	// Getenv and Executable feed configuration resolution.
	Getenv     func(string) string
	Executable func() (string, error)

	configFile string
	flags      config.Config
	dryRun     bool
	verbose    bool

	// KubeFlags holds the kubectl connection flags.
	KubeFlags *genericclioptions.ConfigFlags

	config   config.Config
	log      logr.Logger
	exitCode int
}

// NewApp returns an App wired to the real process.
func NewApp() *App {
	return &App{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
		Executable: os.Executable,
	}
}

// newKubeFlags exposes only the connection settings that are forwarded to
// kubectl; credentials and server overrides stay with kubectl itself.
func newKubeFlags() *genericclioptions.ConfigFlags {
	kubeconfig, kubeContext, namespace := "", "", ""
	return &genericclioptions.ConfigFlags{
		KubeConfig: &kubeconfig,
		Context:    &kubeContext,
		Namespace:  &namespace,
	}
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent-orchestrator",
		Short: "Agentic SDLC Orchestrator - K8s-based async task execution",
		Long: `agent-orchestrator spawns, inspects, and streams logs from asynchronous
agent task pods.

Every command runs exactly one kubectl or companion script invocation and
exits with that process's exit code. Companion scripts (spawn-pod.sh,
tail-logs.sh) are looked up in the script directory, ../k8s relative to the
installed binary unless --script-dir says otherwise.

Examples:
  # Spawn a task pod
  agent-orchestrator spawn --task-id t1 --branch main --repo https://github.com/org/repo.git

  # Check a task
  agent-orchestrator status --task-id t1

  # Follow its logs
  agent-orchestrator logs --task-id t1

  # List all agent pods
  agent-orchestrator list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// No subcommand: show help and fail.
			_ = cmd.Help()
			app.exitCode = 1
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.configFile, "config", "", "Path to a YAML config file (env "+config.EnvConfig+")")
	pf.StringVar(&app.flags.ScriptDir, "script-dir", "", "Directory containing spawn-pod.sh and tail-logs.sh (default <install dir>/../k8s)")
	pf.StringVar(&app.flags.Kubectl, "kubectl", "", "kubectl binary to run (default \"kubectl\")")
	pf.StringVar(&app.flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	pf.BoolVar(&app.dryRun, "dry-run", false, "Print the command that would run instead of running it")
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "Log planned commands and exit codes to stderr")

	if app.KubeFlags == nil {
		app.KubeFlags = newKubeFlags()
	}
	app.KubeFlags.AddFlags(pf)

	cmd.AddCommand(newSpawnCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newLogsCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	ctx, stop := notifyContext()
	defer stop()

	app := NewApp()
	root := newRootCmd(app)
	root.SetContext(ctx)
	return run(app, root, os.Args[1:])
}

// Run executes the command tree with args and returns the exit code.
func Run(app *App, args []string) int {
	return run(app, newRootCmd(app), args)
}

func run(app *App, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	root.SetIn(app.Stdin)
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	failed, err := root.ExecuteC()
	if err == nil {
		return app.exitCode
	}

	_, _ = fmt.Fprintf(app.Stderr, "Error: %v\n", err)

	var de *aoerrors.DispatchError
	if errors.As(err, &de) && de.Type != aoerrors.ErrorTypeValidation {
		return 1
	}
	// Parser errors: unknown command or flag, missing or empty required flag.
	_, _ = fmt.Fprint(app.Stderr, failed.UsageString())
	return dispatch.ExitUsage
}

// dispatcher resolves configuration once and builds the dispatcher.
func (a *App) dispatcher() (*dispatch.Dispatcher, error) {
	a.log = logging.Setup(logging.Options{Verbose: a.verbose, Output: a.Stderr})

	cfg, err := config.Resolve(config.Options{
		File:       a.configFile,
		Flags:      a.flags,
		Getenv:     a.Getenv,
		Executable: a.Executable,
	})
	if err != nil {
		return nil, err
	}
	a.config = cfg
	a.log.V(1).Info("configuration resolved",
		"scriptDir", cfg.ScriptDir,
		"kubectl", cfg.Kubectl,
		"shell", cfg.Shell,
	)

	runner := a.Runner
	if runner == nil {
		runner = process.NewExecRunnerWithConfig(process.RunnerConfig{
			Stdin:  a.Stdin,
			Stdout: a.Stdout,
			Stderr: a.Stderr,
		})
	}

	return dispatch.New(dispatch.Options{
		Config: cfg,
		Kube: dispatch.KubeOptions{
			Kubeconfig: *a.KubeFlags.KubeConfig,
			Context:    *a.KubeFlags.Context,
			Namespace:  *a.KubeFlags.Namespace,
		},
		Runner: runner,
		Stdout: a.Stdout,
		Stderr: a.Stderr,
		DryRun: a.dryRun,
		Log:    a.log,
	}), nil
}

// dispatch runs c and records its exit code for Run to return.
func (a *App) dispatch(cmd *cobra.Command, c dispatch.Command) error {
	// Catch empty values before touching configuration.
	if err := c.Validate(); err != nil {
		return err
	}

	d, err := a.dispatcher()
	if err != nil {
		return err
	}
	defer a.writeMetrics()

	code, err := d.Run(cmd.Context(), c)
	if err != nil {
		return err
	}
	a.exitCode = code
	return nil
}

func (a *App) writeMetrics() {
	if a.config.MetricsFile == "" || a.dryRun {
		return
	}
	if err := metrics.WriteTextfile(a.config.MetricsFile); err != nil {
		a.log.Error(err, "failed to write metrics", "path", a.config.MetricsFile)
	}
}

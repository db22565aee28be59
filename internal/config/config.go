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

// Package config resolves orchestrator configuration once at startup.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, AGENT_ORCHESTRATOR_* environment variables, and command-line
// flags. The companion script directory defaults to ../k8s relative to the
// installed binary.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	aoerrors "github.com/org/agent-orchestrator/pkg/errors"
)

const (
	// DefaultKubectl is the cluster-manager binary, looked up on PATH.
	DefaultKubectl = "kubectl"
	// DefaultShell runs the companion scripts.
	DefaultShell = "bash"
	// DefaultResourcePrefix is prepended to a task ID to name its pod.
	DefaultResourcePrefix = "agent-"
	// DefaultLabelSelector selects every orchestrator pod.
	DefaultLabelSelector = "app=agent-orchestrator"
	// DefaultSSHSecretEnv carries --ssh-secret to the spawn script.
	DefaultSSHSecretEnv = "SSH_SECRET_NAME"

	// SpawnScriptName is the pod-spawn companion script.
	SpawnScriptName = "spawn-pod.sh"
	// TailScriptName is the log-tail companion script.
	TailScriptName = "tail-logs.sh"

	// scriptDirName is the script directory next to the binary's directory.
	scriptDirName = "k8s"
)

// Environment variables read by Resolve.
const (
	EnvConfig      = "AGENT_ORCHESTRATOR_CONFIG"
	EnvScriptDir   = "AGENT_ORCHESTRATOR_SCRIPT_DIR"
	EnvKubectl     = "AGENT_ORCHESTRATOR_KUBECTL"
	EnvMetricsFile = "AGENT_ORCHESTRATOR_METRICS_FILE"
)

// Config holds resolved orchestrator settings.
type Config struct {
	// ScriptDir contains spawn-pod.sh and tail-logs.sh.
	ScriptDir string `json:"scriptDir,omitempty"`

	// Kubectl is the cluster-manager binary.
	Kubectl string `json:"kubectl,omitempty"`

	// Shell interprets the companion scripts.
	Shell string `json:"shell,omitempty"`

	// ResourcePrefix + task ID names the task's pod.
	ResourcePrefix string `json:"resourcePrefix,omitempty"`

	// LabelSelector is passed to `kubectl get pods -l` by list.
	LabelSelector string `json:"labelSelector,omitempty"`

	// SSHSecretEnv is the variable name set for the spawn script.
	SSHSecretEnv string `json:"sshSecretEnv,omitempty"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `json:"metricsFile,omitempty"`
}

// Default returns the built-in configuration. ScriptDir is left empty and
// filled in by Resolve.
func Default() Config {
	return Config{
		Kubectl:        DefaultKubectl,
		Shell:          DefaultShell,
		ResourcePrefix: DefaultResourcePrefix,
		LabelSelector:  DefaultLabelSelector,
		SSHSecretEnv:   DefaultSSHSecretEnv,
	}
}

// SpawnScript returns the path of the pod-spawn script.
func (c Config) SpawnScript() string {
	return filepath.Join(c.ScriptDir, SpawnScriptName)
}

// TailScript returns the path of the log-tail script.
func (c Config) TailScript() string {
	return filepath.Join(c.ScriptDir, TailScriptName)
}

// ResourceName returns the cluster resource name for a task.
func (c Config) ResourceName(taskID string) string {
	return c.ResourcePrefix + taskID
}

// Validate checks the values that end up on kubectl command lines.
func (c Config) Validate() error {
	if c.ScriptDir == "" {
		return aoerrors.Config(nil, "scriptDir must not be empty")
	}
	if c.Kubectl == "" {
		return aoerrors.Config(nil, "kubectl must not be empty")
	}
	if c.Shell == "" {
		return aoerrors.Config(nil, "shell must not be empty")
	}
	if c.ResourcePrefix == "" {
		return aoerrors.Config(nil, "resourcePrefix must not be empty")
	}
	// The prefix alone may end in '-', so check it with a sample task ID.
	if errs := validation.IsDNS1123Subdomain(c.ResourcePrefix + "0"); len(errs) > 0 {
		return aoerrors.Config(nil, fmt.Sprintf("resourcePrefix %q is not a valid resource name prefix: %s",
			c.ResourcePrefix, strings.Join(errs, "; ")))
	}
	if c.LabelSelector == "" {
		return aoerrors.Config(nil, "labelSelector must not be empty")
	}
	if _, err := labels.Parse(c.LabelSelector); err != nil {
		return aoerrors.Config(err, fmt.Sprintf("invalid labelSelector %q", c.LabelSelector))
	}
	if errs := validation.IsEnvVarName(c.SSHSecretEnv); len(errs) > 0 {
		return aoerrors.Config(nil, fmt.Sprintf("sshSecretEnv %q is not a valid environment variable name: %s",
			c.SSHSecretEnv, strings.Join(errs, "; ")))
	}
	return nil
}

// merge copies every non-empty field of o over c.
func (c *Config) merge(o Config) {
	if o.ScriptDir != "" {
		c.ScriptDir = o.ScriptDir
	}
	if o.Kubectl != "" {
		c.Kubectl = o.Kubectl
	}
	if o.Shell != "" {
		c.Shell = o.Shell
	}
	if o.ResourcePrefix != "" {
		c.ResourcePrefix = o.ResourcePrefix
	}
	if o.LabelSelector != "" {
		c.LabelSelector = o.LabelSelector
	}
	if o.SSHSecretEnv != "" {
		c.SSHSecretEnv = o.SSHSecretEnv
	}
	if o.MetricsFile != "" {
		c.MetricsFile = o.MetricsFile
	}
}

// LoadFile reads a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, aoerrors.Config(err, "read config file").WithContext("path", path)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, aoerrors.Config(err, "parse config file").WithContext("path", path)
	}
	return cfg, nil
}

// Options carries the inputs Resolve layers together.
type Options struct {
	// File is the --config flag value.
	File string

	// Flags holds values set explicitly on the command line.
	Flags Config

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// Executable returns the running binary's path. Defaults to os.Executable.
	Executable func() (string, error)
}

// Resolve builds the effective configuration.
func Resolve(opts Options) (Config, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Executable == nil {
		opts.Executable = os.Executable
	}

	cfg := Default()

	file := opts.File
	if file == "" {
		file = opts.Getenv(EnvConfig)
	}
	if file != "" {
		fromFile, err := LoadFile(file)
		if err != nil {
			return Config{}, err
		}
		cfg.merge(fromFile)
	}

	cfg.merge(Config{
		ScriptDir:   opts.Getenv(EnvScriptDir),
		Kubectl:     opts.Getenv(EnvKubectl),
		MetricsFile: opts.Getenv(EnvMetricsFile),
	})
	cfg.merge(opts.Flags)

	if cfg.ScriptDir == "" {
		dir, err := DefaultScriptDir(opts.Executable)
		if err != nil {
			return Config{}, err
		}
		cfg.ScriptDir = dir
	}
	abs, err := filepath.Abs(cfg.ScriptDir)
	if err != nil {
		return Config{}, aoerrors.Config(err, "resolve script directory").WithContext("scriptDir", cfg.ScriptDir)
	}
	cfg.ScriptDir = abs

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultScriptDir returns <install dir>/../k8s for the running binary,
// following symlinks so a linked binary still finds its scripts.
func DefaultScriptDir(executable func() (string, error)) (string, error) {
	exe, err := executable()
	if err != nil {
		return "", aoerrors.Config(err, "locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(filepath.Dir(exe)), scriptDirName), nil
}

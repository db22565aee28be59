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

// Package dispatch maps orchestrator commands to exactly one external
// process invocation each, runs it, and relays the result.
//
// The dispatcher never interprets a child's failure: its exit code becomes
// the orchestrator's exit code. The only synthetic status is 1, used when a
// required companion script is missing or a child could not be started.
package dispatch

import aoerrors "github.com/org/agent-orchestrator/pkg/errors"

// Command is one of Spawn, Status, Logs or List.
// The set is closed: only this package can add variants.
type Command interface {
	// Name is the subcommand name, also used as a metrics label.
	Name() string

	// Validate checks required fields before anything is planned.
	Validate() error

	isCommand()
}

// Spawn starts a task pod through the spawn-pod.sh companion script.
type Spawn struct {
	TaskID     string
	Branch     string
	Repo       string
	ContextDir string // optional, "." when empty
	SSHSecret  string // optional, exported to the script when set
}

// Status shows the task's resource with `kubectl get <resource> -o wide`.
type Status struct {
	TaskID string
}

// Logs streams the task's logs, through tail-logs.sh when it is installed.
type Logs struct {
	TaskID string
}

// List shows every orchestrator pod.
type List struct{}

func (Spawn) Name() string  { return "spawn" }
func (Status) Name() string { return "status" }
func (Logs) Name() string   { return "logs" }
func (List) Name() string   { return "list" }

func (Spawn) isCommand()  {}
func (Status) isCommand() {}
func (Logs) isCommand()   {}
func (List) isCommand()   {}

// Validate implements Command.
func (c Spawn) Validate() error {
	switch {
	case c.TaskID == "":
		return aoerrors.RequiredField(c.Name(), "task-id")
	case c.Branch == "":
		return aoerrors.RequiredField(c.Name(), "branch")
	case c.Repo == "":
		return aoerrors.RequiredField(c.Name(), "repo")
	}
	return nil
}

// Validate implements Command.
func (c Status) Validate() error {
	if c.TaskID == "" {
		return aoerrors.RequiredField(c.Name(), "task-id")
	}
	return nil
}

// Validate implements Command.
func (c Logs) Validate() error {
	if c.TaskID == "" {
		return aoerrors.RequiredField(c.Name(), "task-id")
	}
	return nil
}

// Validate implements Command.
func (List) Validate() error { return nil }

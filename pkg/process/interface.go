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
	"context"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Invocation describes one external process call.
type Invocation struct {
	// Path is the program to run, resolved through PATH when not absolute.
	Path string

	// Args are the arguments after the program name.
	Args []string

	// Overlay holds environment variables set for this child only.
	Overlay map[string]string

	// Capture buffers stdout/stderr instead of streaming them to the terminal.
	Capture bool
}

// Argv returns the full argument vector, program first.
func (i Invocation) Argv() []string {
	return append([]string{i.Path}, i.Args...)
}

// String renders the invocation as a shell command line. Overlay variables
// are shown by name only so secrets never end up in logs.
func (i Invocation) String() string {
	line := shellquote.Join(i.Argv()...)
	if len(i.Overlay) == 0 {
		return line
	}
	names := make([]string, 0, len(i.Overlay))
	for k := range i.Overlay {
		names = append(names, k+"=***")
	}
	sort.Strings(names)
	return strings.Join(names, " ") + " " + line
}

// Result is what an external process left behind.
type Result struct {
	// ExitCode is the child's exit status, or 128+signal when it was killed.
	ExitCode int

	// Stdout and Stderr are only populated for captured invocations.
	Stdout string
	Stderr string
}

// Output returns stdout when it is non-empty and stderr otherwise.
func (r Result) Output() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Runner executes invocations.
// This interface allows for mocking in tests.
type Runner interface {
	// Run blocks until the child exits. A non-zero exit is reported through
	// Result.ExitCode; the error is reserved for processes that never ran.
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// Verify runners implement Runner at compile time
var (
	_ Runner = (*ExecRunner)(nil)
	_ Runner = (*MockRunner)(nil)
)

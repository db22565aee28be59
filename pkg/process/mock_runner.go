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
	"sync"
)

// MockRunner is a mock implementation of Runner for testing.
// It records every invocation it receives.
type MockRunner struct {
	// RunFunc, when set, produces the result for each call.
	RunFunc func(ctx context.Context, inv Invocation) (Result, error)

	mu    sync.Mutex
	calls []Invocation
}

// Run implements Runner
func (m *MockRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, inv)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, inv)
	}
	return Result{}, nil
}

// Calls returns the invocations seen so far.
func (m *MockRunner) Calls() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invocation, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent invocation, and false if there was none.
func (m *MockRunner) LastCall() (Invocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Invocation{}, false
	}
	return m.calls[len(m.calls)-1], true
}

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

//go:build !windows

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// notifyContext keeps the orchestrator alive while a child runs.
// Ctrl-C reaches the child through the terminal's process group, so SIGINT
// is only swallowed here and the child's exit code is still relayed. SIGTERM
// is aimed at the orchestrator alone and is forwarded by cancelling the
// context, which sends the child SIGTERM and kills it if it lingers.
func notifyContext() (context.Context, func()) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	return ctx, func() {
		stop()
		signal.Stop(interrupts)
	}
}

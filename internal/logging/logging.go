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

// Package logging sets up the orchestrator's structured logger.
//
// Diagnostics go to stderr through logr, backed by controller-runtime's zap
// integration. By default only errors are logged so that the output of
// kubectl and the companion scripts is relayed untouched.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Options controls logger construction.
type Options struct {
	// Verbose enables debug logs of planned invocations and exit codes.
	Verbose bool

	// Output receives log lines. Required.
	Output io.Writer
}

// New builds a logger from opts.
func New(opts Options) logr.Logger {
	level := zapcore.ErrorLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	return zap.New(
		zap.WriteTo(opts.Output),
		zap.UseDevMode(opts.Verbose),
		zap.Level(level),
		zap.StacktraceLevel(zapcore.PanicLevel),
	)
}

// Setup builds a logger and installs it as controller-runtime's global
// logger, mirroring ctrl.SetLogger in the operator entrypoints.
func Setup(opts Options) logr.Logger {
	log := New(opts)
	ctrl.SetLogger(log)
	return log.WithName("agent-orchestrator")
}

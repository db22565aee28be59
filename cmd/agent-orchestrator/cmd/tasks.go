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
	"github.com/spf13/cobra"

	"github.com/org/agent-orchestrator/pkg/dispatch"
)

func newStatusCmd(app *App) *cobra.Command {
	var status dispatch.Status

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check task status",
		Args:  cobra.NoArgs,
		Example: `  # Show the task pod
  agent-orchestrator status --task-id t1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.dispatch(cmd, status)
		},
	}

	cmd.Flags().StringVar(&status.TaskID, "task-id", "", "Task ID")
	_ = cmd.MarkFlagRequired("task-id")

	return cmd
}

func newLogsCmd(app *App) *cobra.Command {
	var logs dispatch.Logs

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Stream task logs",
		Long: `Stream logs from a task pod. tail-logs.sh from the script directory is used
when installed; otherwise kubectl logs -f is run directly.`,
		Args: cobra.NoArgs,
		Example: `  # Follow a task's logs
  agent-orchestrator logs --task-id t1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.dispatch(cmd, logs)
		},
	}

	cmd.Flags().StringVar(&logs.TaskID, "task-id", "", "Task ID")
	_ = cmd.MarkFlagRequired("task-id")

	return cmd
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all running pods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.dispatch(cmd, dispatch.List{})
		},
	}
}

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

func newSpawnCmd(app *App) *cobra.Command {
	var spawn dispatch.Spawn

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Spawn a K8s pod for async task",
		Long: `Spawn a pod for an asynchronous task by running spawn-pod.sh from the
script directory with the task ID, branch, repository and context directory.

Output is streamed as the script runs. When --ssh-secret is given, the script
sees it as SSH_SECRET_NAME; nothing else in its environment changes.`,
		Args: cobra.NoArgs,
		Example: `  # Spawn a task on main
  agent-orchestrator spawn --task-id t1 --branch main --repo https://github.com/org/repo.git

  # Spawn with a context directory and an SSH secret for private repos
  agent-orchestrator spawn --task-id t2 --branch feat/x --repo git@github.com:org/repo.git \
    --context-dir docs/agent --ssh-secret git-ssh-key`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.dispatch(cmd, spawn)
		},
	}

	cmd.Flags().StringVar(&spawn.TaskID, "task-id", "", "Task ID")
	cmd.Flags().StringVar(&spawn.Branch, "branch", "", "Git branch")
	cmd.Flags().StringVar(&spawn.Repo, "repo", "", "Git repository URL")
	cmd.Flags().StringVar(&spawn.ContextDir, "context-dir", "", "Context directory (default \".\")")
	cmd.Flags().StringVar(&spawn.SSHSecret, "ssh-secret", "", "SSH secret name for git auth")
	_ = cmd.MarkFlagRequired("task-id")
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

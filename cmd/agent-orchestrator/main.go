/*
agent-orchestrator spawns, inspects, and streams logs from asynchronous
agent task pods.

It is a thin dispatcher: every subcommand becomes one kubectl or companion
script invocation, and the child's exit code becomes this program's exit
code.

Usage:

	agent-orchestrator <command> [flags]

Available Commands:

	spawn      Spawn a K8s pod for an async task
	status     Check task status
	logs       Stream task logs
	list       List all running agent pods
	version    Print version information
*/
package main

import (
	"os"

	"github.com/org/agent-orchestrator/cmd/agent-orchestrator/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

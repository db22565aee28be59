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

package dispatch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/org/agent-orchestrator/internal/config"
	aoerrors "github.com/org/agent-orchestrator/pkg/errors"
	"github.com/org/agent-orchestrator/pkg/process"
)

func touch(path string) {
	ExpectWithOffset(1, os.WriteFile(path, []byte("#!/usr/bin/env bash\n"), 0o755)).To(Succeed())
}

var _ = Describe("Dispatcher planning", func() {
	var (
		scriptDir string
		cfg       config.Config
		runner    *process.MockRunner
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
		d         *Dispatcher
	)

	BeforeEach(func() {
		scriptDir = GinkgoT().TempDir()
		cfg = config.Default()
		cfg.ScriptDir = scriptDir
		runner = &process.MockRunner{}
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		d = New(Options{Config: cfg, Runner: runner, Stdout: stdout, Stderr: stderr})
	})

	Context("spawn", func() {
		It("builds the script vector with the default context dir", func() {
			touch(cfg.SpawnScript())

			inv, err := d.Plan(Spawn{TaskID: "t1", Branch: "main", Repo: "https://x/y.git"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Argv()).To(Equal([]string{
				"bash", filepath.Join(scriptDir, "spawn-pod.sh"), "t1", "main", "https://x/y.git", ".",
			}))
			Expect(inv.Overlay).To(BeEmpty())
			Expect(inv.Capture).To(BeFalse())
		})

		It("passes the context dir and exports the ssh secret", func() {
			touch(cfg.SpawnScript())

			inv, err := d.Plan(Spawn{
				TaskID: "t2", Branch: "feat", Repo: "git@h:r.git",
				ContextDir: "docs/ctx", SSHSecret: "git-ssh",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Args).To(Equal([]string{cfg.SpawnScript(), "t2", "feat", "git@h:r.git", "docs/ctx"}))
			Expect(inv.Overlay).To(Equal(map[string]string{"SSH_SECRET_NAME": "git-ssh"}))
		})

		It("aborts with status 1 when the script is missing", func() {
			code, err := d.Run(context.Background(), Spawn{TaskID: "t1", Branch: "main", Repo: "r"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(1))
			Expect(stdout.String()).To(Equal("Error: spawn-pod.sh not found at " + cfg.SpawnScript() + "\n"))
			Expect(runner.Calls()).To(BeEmpty())
		})

		It("reports a missing script as not found from Plan", func() {
			_, err := d.Plan(Spawn{TaskID: "t1", Branch: "main", Repo: "r"})
			Expect(aoerrors.IsNotFound(err)).To(BeTrue())
		})

		DescribeTable("rejects empty required fields",
			func(c Spawn, flag string) {
				code, err := d.Run(context.Background(), c)
				Expect(code).To(Equal(ExitUsage))
				Expect(aoerrors.IsValidation(err)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("--" + flag))
				Expect(runner.Calls()).To(BeEmpty())
			},
			Entry("task id", Spawn{Branch: "b", Repo: "r"}, "task-id"),
			Entry("branch", Spawn{TaskID: "t", Repo: "r"}, "branch"),
			Entry("repo", Spawn{TaskID: "t", Branch: "b"}, "repo"),
		)
	})

	Context("status", func() {
		It("queries the task resource in wide output and captures it", func() {
			inv, err := d.Plan(Status{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Argv()).To(Equal([]string{"kubectl", "get", "agent-t1", "-o", "wide"}))
			Expect(inv.Capture).To(BeTrue())
		})

		It("prints stdout when it is non-empty", func() {
			runner.RunFunc = func(context.Context, process.Invocation) (process.Result, error) {
				return process.Result{ExitCode: 0, Stdout: "NAME READY\nagent-t1 1/1\n", Stderr: "warning"}, nil
			}
			code, err := d.Run(context.Background(), Status{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(0))
			Expect(stdout.String()).To(Equal("NAME READY\nagent-t1 1/1\n\n"))
		})

		It("prints stderr only when stdout is empty and relays the exit code", func() {
			runner.RunFunc = func(context.Context, process.Invocation) (process.Result, error) {
				return process.Result{ExitCode: 1, Stderr: `Error from server (NotFound): "agent-t9" not found`}, nil
			}
			code, err := d.Run(context.Background(), Status{TaskID: "t9"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(1))
			Expect(stdout.String()).To(Equal("Error from server (NotFound): \"agent-t9\" not found\n"))
		})
	})

	Context("logs", func() {
		It("prefers the tail script when present", func() {
			touch(cfg.TailScript())

			inv, err := d.Plan(Logs{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Argv()).To(Equal([]string{"bash", cfg.TailScript(), "agent-t1"}))
			Expect(inv.Capture).To(BeFalse())
		})

		It("falls back to kubectl logs -f", func() {
			inv, err := d.Plan(Logs{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Argv()).To(Equal([]string{"kubectl", "logs", "-f", "agent-t1"}))
			Expect(inv.Capture).To(BeFalse())
		})

		It("does not print anything for streamed output", func() {
			runner.RunFunc = func(context.Context, process.Invocation) (process.Result, error) {
				return process.Result{ExitCode: 130}, nil
			}
			code, err := d.Run(context.Background(), Logs{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(130))
			Expect(stdout.String()).To(BeEmpty())
		})
	})

	Context("list", func() {
		It("selects orchestrator pods in wide output", func() {
			inv, err := d.Plan(List{})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Argv()).To(Equal([]string{"kubectl", "get", "pods", "-l", "app=agent-orchestrator", "-o", "wide"}))
			Expect(inv.Capture).To(BeTrue())
		})

		It("prints an empty line when kubectl is silent", func() {
			code, err := d.Run(context.Background(), List{})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(0))
			Expect(stdout.String()).To(Equal("\n"))
		})
	})

	Context("kube connection overrides", func() {
		BeforeEach(func() {
			d = New(Options{
				Config: cfg,
				Kube:   KubeOptions{Kubeconfig: "/tmp/kc", Context: "dev", Namespace: "agents"},
				Runner: runner,
				Stdout: stdout,
			})
		})

		It("appends kubectl flags after the fixed arguments", func() {
			inv, err := d.Plan(Status{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Args).To(Equal([]string{
				"get", "agent-t1", "-o", "wide",
				"--kubeconfig", "/tmp/kc", "--context", "dev", "--namespace", "agents",
			}))
		})

		It("exports only KUBECONFIG to scripts", func() {
			touch(cfg.SpawnScript())

			inv, err := d.Plan(Spawn{TaskID: "t1", Branch: "main", Repo: "r", SSHSecret: "s"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Args).To(Equal([]string{cfg.SpawnScript(), "t1", "main", "r", "."}))
			Expect(inv.Overlay).To(Equal(map[string]string{"KUBECONFIG": "/tmp/kc", "SSH_SECRET_NAME": "s"}))
		})
	})

	Context("configured naming", func() {
		It("uses the configured prefix, selector and secret variable", func() {
			cfg.ResourcePrefix = "task-"
			cfg.LabelSelector = "team=ml"
			cfg.SSHSecretEnv = "GIT_SSH_SECRET"
			touch(cfg.SpawnScript())
			d = New(Options{Config: cfg, Runner: runner})

			inv, err := d.Plan(Logs{TaskID: "t1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Args).To(Equal([]string{"logs", "-f", "task-t1"}))

			inv, err = d.Plan(List{})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Args).To(ContainElement("team=ml"))

			inv, err = d.Plan(Spawn{TaskID: "t1", Branch: "b", Repo: "r", SSHSecret: "k"})
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Overlay).To(HaveKeyWithValue("GIT_SSH_SECRET", "k"))
		})
	})

	Context("dry run", func() {
		It("prints the command line without running it", func() {
			d = New(Options{Config: cfg, Runner: runner, Stdout: stdout, DryRun: true})

			code, err := d.Run(context.Background(), Status{TaskID: "t 1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(0))
			Expect(stdout.String()).To(Equal("kubectl get 'agent-t 1' -o wide\n"))
			Expect(runner.Calls()).To(BeEmpty())
		})
	})

	Context("child start failure", func() {
		It("reports the failure on stderr and returns 1", func() {
			runner.RunFunc = func(_ context.Context, inv process.Invocation) (process.Result, error) {
				return process.Result{}, aoerrors.ExecFailed(os.ErrNotExist, inv.String())
			}
			code, err := d.Run(context.Background(), List{})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(ExitStartFailed))
			Expect(stderr.String()).To(ContainSubstring("failed to run kubectl get pods"))
			Expect(stdout.String()).To(BeEmpty())
		})
	})

	Context("unknown command implementations", func() {
		It("refuses pointer variants instead of succeeding silently", func() {
			code, err := d.Run(context.Background(), &List{})
			Expect(err).To(HaveOccurred())
			Expect(code).To(Equal(1))
			Expect(runner.Calls()).To(BeEmpty())
		})
	})
})

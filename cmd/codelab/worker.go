package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/sandbox"
)

const sandboxWorkerCmdName = "sandbox-worker"

// The worker reads one job from stdin and writes JSONL messages to stdout.
// Logs must stay on stderr.
func newSandboxWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    sandboxWorkerCmdName,
		Short:  "Run one sandboxed script job over stdio",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sandbox.ServeMain(cmd.Context())
		},
	}
}

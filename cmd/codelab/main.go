package main

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	args := applyArgv0Alias(os.Args)
	root := newRootCmd()
	root.SetArgs(args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		pslog.Ctx(ctx).With("err", err).Error("codelab command failed")
		return 1
	}
	return 0
}

// exitError ends the process with code without logging a failure. Used when
// the outcome has already been printed, such as a run that ended in error.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "codelab",
		Short:         "Multi-language coding playground with a sandboxed runner, preview and mentor",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default ~/.codelab/config.yaml)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newShellCmd(opts))
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newPreviewCmd(opts))
	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newQuizCmd(opts))
	root.AddCommand(newFormatCmd())
	root.AddCommand(newStudioCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newSandboxWorkerCmd())

	return root
}

func argv0Alias(base string) string {
	switch base {
	case "codelab-sandbox-worker":
		return sandboxWorkerCmdName
	default:
		return ""
	}
}

func applyArgv0Alias(args []string) []string {
	if len(args) == 0 {
		return args
	}
	alias := argv0Alias(filepath.Base(args[0]))
	if alias == "" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], alias)
	out = append(out, args[1:]...)
	return out
}

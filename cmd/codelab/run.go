package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/codelab"
	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run a project once and print its output",
		Long: "Run executes the project built from the given files (the first file is active). " +
			"JavaScript runs in the local sandbox, React renders a preview document and every " +
			"other language is simulated remotely. The exit code is non-zero unless the run completes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			language, files, active, err := readProject(args, lang)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printer := codelab.NewPrinter(out, colorEnabled(out))
			studio, err := newStudio(cmd.Context(), cfg, language, files, active, printer)
			if err != nil {
				return err
			}
			status, runErr := runOnce(cmd.Context(), studio)
			if status == "" {
				return runErr
			}
			pslog.Ctx(cmd.Context()).Debug("run finished", "language", language, "status", status)
			if language == schema.LanguageReact && status == schema.RunDone {
				event, _, _ := studio.Surface().Latest()
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "preview %d rendered; use 'codelab preview' or 'codelab render' to view it\n", event.Key)
			}
			return statusError(status, runErr)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language (default: inferred from the first file)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/codelab"
	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/schema"
)

func newShellCmd(opts *rootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Open an interactive MongoDB or Node.js shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := schema.ParseLanguage(lang)
			if err != nil {
				return fmt.Errorf("%w: %s", err, lang)
			}
			if !language.HasShell() {
				return fmt.Errorf("%s has no interactive shell", language.Label())
			}
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printer := codelab.NewPrinter(out, colorEnabled(out))
			studio, err := newStudio(cmd.Context(), cfg, language, nil, "", printer)
			if err != nil {
				return err
			}
			prompt := language.Label() + "> "
			in := cmd.InOrStdin()
			return lineLoop(cmd.Context(), in, printer, interactivePrompt(in, func() string { return prompt }), func(ctx context.Context, line string) error {
				line = strings.TrimSpace(line)
				switch line {
				case "":
					return nil
				case "exit", "quit":
					return errStopLoop
				}
				if err := studio.Shell(ctx, line); err != nil {
					_, _ = fmt.Fprintf(printer, "error: %v\n", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", string(schema.LanguageMongoDB), "shell language (mongodb or nodejs)")
	return cmd
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/internal/command"
	"pkt.systems/codelab/schema"
)

func newQuizCmd(opts *rootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "quiz [beginner|intermediate|advanced]",
		Short: "Play a multiple choice quiz for a language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := schema.ParseLanguage(lang)
			if err != nil {
				return fmt.Errorf("%w: %s", err, lang)
			}
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			studio, err := newStudio(cmd.Context(), cfg, language, nil, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			handler := command.NewHandler(studio, command.HandlerConfig{
				Out:                 out,
				Color:               colorEnabled(out),
				DisableAuditLogging: cfg.Logging.DisableAuditTrails,
			})
			line := "/quiz"
			if len(args) == 1 {
				line += " " + args[0]
			}
			if err := handler.Handle(cmd.Context(), line); err != nil {
				return err
			}
			in := cmd.InOrStdin()
			return lineLoop(cmd.Context(), in, out, interactivePrompt(in, handler.Prompt), func(ctx context.Context, line string) error {
				if err := handler.Handle(ctx, line); err != nil {
					_, _ = fmt.Fprintf(out, "error: %v\n", err)
				}
				if !handler.Modal() {
					return errStopLoop
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", string(schema.LanguageJavaScript), "quiz language")
	return cmd
}

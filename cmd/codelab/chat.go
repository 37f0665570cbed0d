package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/internal/command"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var lang string
	var files []string
	var history bool
	var clear bool
	var preset int
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Ask the mentor a question about your project",
		Long: "Chat sends one message to the mentor with the given files as project context and prints the reply. " +
			"The transcript is kept in the state directory between invocations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			language, projectFiles, active, err := readProject(files, lang)
			if err != nil {
				return err
			}
			studio, err := newStudio(cmd.Context(), cfg, language, projectFiles, active)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			handler := command.NewHandler(studio, command.HandlerConfig{
				Out:                 out,
				Color:               colorEnabled(out),
				DisableAuditLogging: cfg.Logging.DisableAuditTrails,
			})
			text := strings.TrimSpace(strings.Join(args, " "))
			var line string
			switch {
			case clear:
				line = "/clear-chat"
			case history:
				line = "/history"
			case preset > 0:
				line = fmt.Sprintf("/preset %d", preset)
			case text != "":
				line = "/chat " + text
			default:
				line = "/presets"
			}
			return handler.Handle(cmd.Context(), line)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "project language (default: inferred from the first file)")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "project file to include as context (repeatable)")
	cmd.Flags().BoolVar(&history, "history", false, "print the transcript")
	cmd.Flags().BoolVar(&clear, "clear", false, "reset the transcript")
	cmd.Flags().IntVar(&preset, "preset", 0, "send a quick action by number (see 'codelab chat' with no message)")
	cmd.MarkFlagsMutuallyExclusive("history", "clear", "preset")
	return cmd
}

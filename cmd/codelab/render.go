package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/internal/preview"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var renderID string
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Print the preview document for a React component",
		Long:  "Render reads a component from file (or stdin) and prints the self-contained HTML document the preview frame loads.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			var source string
			if len(args) == 1 {
				source, err = readSource(args[0])
			} else {
				source, err = readLimited(cmd.InOrStdin(), "stdin")
			}
			if err != nil {
				return err
			}
			doc, err := preview.Options{
				ReactVersion: cfg.Preview.ReactVersion,
				BabelVersion: cfg.Preview.BabelVersion,
			}.Render(source, renderID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		},
	}
	cmd.Flags().StringVar(&renderID, "render-id", "", "render id stamped on the document body")
	return cmd
}

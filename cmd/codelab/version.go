package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codelab version and the engines it was built with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.Read().Write(cmd.OutOrStdout())
		},
	}
}

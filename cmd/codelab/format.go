package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/codelab/internal/formatter"
)

func newFormatCmd() *cobra.Command {
	var lang string
	var write bool
	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "Format a JavaScript or JSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			language, err := resolveLanguage(lang, args)
			if err != nil {
				return err
			}
			source, err := readSource(path)
			if err != nil {
				return err
			}
			formatted, err := formatter.Format(language, source)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if !write {
				_, err = fmt.Fprint(cmd.OutOrStdout(), formatted)
				return err
			}
			if formatted == source {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "formatted %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language (default: inferred from the file extension)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	return cmd
}

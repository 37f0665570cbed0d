package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"pkt.systems/codelab"
	"pkt.systems/codelab/httpapi"
	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/internal/command"
	"pkt.systems/pslog"
)

func newStudioCmd(opts *rootOptions) *cobra.Command {
	var lang string
	var listen string
	var noPreview bool
	cmd := &cobra.Command{
		Use:   "studio [files...]",
		Short: "Interactive playground with editor commands, runner, shell, mentor and quiz",
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
			color := colorEnabled(out)
			printer := codelab.NewPrinter(out, color)
			studio, err := newStudio(cmd.Context(), cfg, language, files, active, printer)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			var previewDone <-chan error
			if !noPreview {
				if listen == "" {
					listen = cfg.Preview.Listen
				}
				previewDone = startPreview(ctx, studio, listen, printer)
			}

			handler := command.NewHandler(studio, command.HandlerConfig{
				Out:                 printer,
				Color:               color,
				DisableAuditLogging: cfg.Logging.DisableAuditTrails,
			})
			_, _ = fmt.Fprintf(printer, "codelab studio (%s), type /help for commands\n", studio.Language().Label())
			in := cmd.InOrStdin()
			err = lineLoop(ctx, in, printer, interactivePrompt(in, handler.Prompt), func(ctx context.Context, line string) error {
				err := handler.Handle(ctx, line)
				if errors.Is(err, command.ErrQuit) {
					return errStopLoop
				}
				if err != nil {
					_, _ = fmt.Fprintf(printer, "error: %v\n", err)
				}
				return nil
			})
			studio.Cancel()
			cancel()
			if previewDone != nil {
				if serveErr := <-previewDone; serveErr != nil {
					pslog.Ctx(cmd.Context()).Warn("preview server stopped", "err", serveErr)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language (default: inferred from the first file, else javascript)")
	cmd.Flags().StringVar(&listen, "listen", "", "preview listen address (default: preview.listen from config)")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "do not start the preview server")
	return cmd
}

// startPreview serves the studio preview in the background. A listen failure
// leaves the studio usable without a preview page.
func startPreview(ctx context.Context, studio *codelab.Studio, addr string, out io.Writer) <-chan error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		pslog.Ctx(ctx).Warn("preview server disabled", "addr", addr, "err", err)
		_, _ = fmt.Fprintf(out, "preview disabled: %v\n", err)
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- studio.ServePreview(ctx, ln, httpapi.Config{}) }()
	_, _ = fmt.Fprintf(out, "preview: %s\n", codelab.ListenerURL(ln.Addr(), ""))
	return done
}

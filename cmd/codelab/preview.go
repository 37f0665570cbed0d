package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/codelab"
	"pkt.systems/codelab/httpapi"
	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var listen string
	var basePath string
	var baseURL string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "preview [files...]",
		Short: "Serve the React preview and re-render when files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := appconfig.Load(opts.configPath)
			if err != nil {
				return err
			}
			_, files, active, err := readProject(args, string(schema.LanguageReact))
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Preview.Listen
			}
			out := cmd.OutOrStdout()
			printer := codelab.NewPrinter(out, colorEnabled(out))
			studio, err := newStudio(ctx, cfg, schema.LanguageReact, files, active, printer)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("preview listen: %w", err)
			}
			serveCfg := httpapi.Config{BaseURL: baseURL, BasePath: basePath}
			serveErr := make(chan error, 1)
			go func() { serveErr <- studio.ServePreview(ctx, ln, serveCfg) }()
			_, _ = fmt.Fprintf(printer, "preview: %s\n", codelab.ListenerURL(ln.Addr(), basePath))

			rerender := func() {
				status, err := runOnce(ctx, studio)
				if status != schema.RunDone && status != "" {
					pslog.Ctx(ctx).Warn("preview render failed", "status", status, "err", err)
				}
			}
			rerender()

			if interval <= 0 {
				interval = 500 * time.Millisecond
			}
			watcher := newFileWatcher(args)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return <-serveErr
				case err := <-serveErr:
					return err
				case <-ticker.C:
					changed, err := watcher.poll(studio)
					if err != nil {
						pslog.Ctx(ctx).Warn("preview reload failed", "err", err)
						continue
					}
					if changed {
						rerender()
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: preview.listen from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "URL path prefix for the preview page")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public URL when served behind a proxy")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "file change poll interval")
	return cmd
}

// fileWatcher tracks modification times of the project files.
type fileWatcher struct {
	paths   []string
	modTime map[string]time.Time
}

func newFileWatcher(paths []string) *fileWatcher {
	w := &fileWatcher{paths: paths, modTime: make(map[string]time.Time, len(paths))}
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			w.modTime[path] = info.ModTime()
		}
	}
	return w
}

// poll reloads changed files into the studio project.
func (w *fileWatcher) poll(studio *codelab.Studio) (bool, error) {
	changed := false
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			return changed, err
		}
		if info.ModTime().Equal(w.modTime[path]) {
			continue
		}
		source, err := readSource(path)
		if err != nil {
			return changed, err
		}
		if err := studio.Project().Write(filepath.Base(path), source); err != nil {
			return changed, err
		}
		w.modTime[path] = info.ModTime()
		changed = true
	}
	return changed, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/codelab"
	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/appconfig"
	"pkt.systems/codelab/internal/persist"
	"pkt.systems/codelab/internal/preview"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/internal/sandbox"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

const maxSourceBytes = 1 << 20

// newStudio builds a studio from the loaded configuration.
func newStudio(ctx context.Context, cfg appconfig.Config, lang schema.Language, files map[string]string, active string, sinks ...core.EventSink) (*codelab.Studio, error) {
	logger := pslog.Ctx(ctx)
	isolation, err := sandbox.ParseIsolation(cfg.Sandbox.Isolation)
	if err != nil {
		return nil, err
	}
	store, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	generator := remote.NewGemini(remote.GeminiConfig{
		APIKey: cfg.Remote.APIKey,
		Model:  cfg.Remote.Model,
		Logger: logger,
	})
	logger.Debug("studio configured",
		"language", lang,
		"files", len(files),
		"isolation", isolation,
		"model", generator.Model(),
		"remote_ready", generator.Ready() == nil,
	)
	return codelab.NewStudio(codelab.StudioConfig{
		Language:         lang,
		Files:            files,
		Active:           active,
		OutputMaxEntries: cfg.Output.MaxEntries,
		Sandbox: sandbox.Config{
			Timeout:   cfg.SandboxTimeout(),
			Isolation: isolation,
			Limits: sandbox.Limits{
				MaxMessages:   cfg.Sandbox.MaxMessages,
				MaxEntryChars: cfg.Sandbox.MaxEntryChars,
			},
		},
		Preview: preview.Options{
			ReactVersion: cfg.Preview.ReactVersion,
			BabelVersion: cfg.Preview.BabelVersion,
		},
		Generator:     generator,
		RemoteTimeout: cfg.RemoteTimeout(),
		Store:         store,
		Sinks:         sinks,
		Logger:        logger,
	})
}

// languageForFile infers the language from a file extension. Plain .js maps
// to the script runner; nodejs and mongodb need an explicit --lang.
func languageForFile(name string) (schema.Language, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs", ".cjs":
		return schema.LanguageJavaScript, true
	case ".jsx", ".tsx":
		return schema.LanguageReact, true
	case ".py":
		return schema.LanguagePython, true
	case ".java":
		return schema.LanguageJava, true
	case ".cpp", ".cc", ".cxx", ".hpp", ".h":
		return schema.LanguageCPP, true
	default:
		return "", false
	}
}

// resolveLanguage picks the explicit flag value, then the first file's
// extension, then JavaScript.
func resolveLanguage(flag string, paths []string) (schema.Language, error) {
	if strings.TrimSpace(flag) != "" {
		return schema.ParseLanguage(flag)
	}
	if len(paths) > 0 {
		if lang, ok := languageForFile(paths[0]); ok {
			return lang, nil
		}
		return "", fmt.Errorf("cannot infer language from %s; pass --lang", filepath.Base(paths[0]))
	}
	return schema.LanguageJavaScript, nil
}

// readProject loads files from disk keyed by base name. The first file is
// active. No paths yields an empty map so the studio seeds the starter file.
func readProject(paths []string, langFlag string) (schema.Language, map[string]string, string, error) {
	lang, err := resolveLanguage(langFlag, paths)
	if err != nil {
		return "", nil, "", err
	}
	if len(paths) == 0 {
		return lang, nil, "", nil
	}
	files := make(map[string]string, len(paths))
	active := ""
	for _, path := range paths {
		name := filepath.Base(path)
		if err := schema.ValidateFilename(name); err != nil {
			return "", nil, "", fmt.Errorf("%s: %w", path, err)
		}
		if _, exists := files[name]; exists {
			return "", nil, "", fmt.Errorf("duplicate file name %s", name)
		}
		source, err := readSource(path)
		if err != nil {
			return "", nil, "", err
		}
		files[name] = source
		if active == "" {
			active = name
		}
	}
	return lang, files, active, nil
}

func readSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return readLimited(f, path)
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxSourceBytes {
		return "", fmt.Errorf("%s exceeds %d bytes", name, maxSourceBytes)
	}
	return string(data), nil
}

// runOnce dispatches the project and waits for its terminal status. The
// wait outlives ctx so a canceled run still reports canceled.
func runOnce(ctx context.Context, studio *codelab.Studio) (schema.RunStatus, error) {
	session, err := studio.Run(ctx)
	if err != nil {
		return "", err
	}
	return session.Wait(context.WithoutCancel(ctx))
}

func exitCodeForStatus(status schema.RunStatus) int {
	switch status {
	case schema.RunDone:
		return 0
	case schema.RunTimeout:
		return 124
	case schema.RunCanceled:
		return 130
	default:
		return 1
	}
}

func statusError(status schema.RunStatus, err error) error {
	if status == schema.RunDone {
		return nil
	}
	msg := "run " + string(status)
	if err != nil && !errors.Is(err, context.Canceled) {
		msg += ": " + err.Error()
	}
	return &exitError{code: exitCodeForStatus(status), msg: msg}
}

// isTerminal reports whether v is a character device such as a tty.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

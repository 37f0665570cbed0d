package codelab

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/httpapi"
	"pkt.systems/codelab/internal/command"
	"pkt.systems/codelab/internal/eventbus"
	"pkt.systems/codelab/internal/formatter"
	"pkt.systems/codelab/internal/mentor"
	"pkt.systems/codelab/internal/preview"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/internal/sandbox"
	"pkt.systems/codelab/internal/shell"
	"pkt.systems/codelab/internal/simulate"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

var _ command.Workspace = (*Studio)(nil)

// StudioConfig configures the studio compositor.
type StudioConfig struct {
	Language schema.Language
	// Files seeds the project; empty seeds the starter file for Language.
	Files  map[string]string
	Active string

	OutputMaxEntries int
	Sandbox          sandbox.Config
	Preview          preview.Options
	Generator        remote.Generator
	RemoteTimeout    time.Duration
	Store            mentor.Store
	HubHistory       int
	Sinks            []core.EventSink
	Logger           pslog.Logger
}

// Studio wires the project, dispatcher, backends, shell and mentor for one
// user. It implements the workspace the command handler drives.
type Studio struct {
	project    *core.Project
	dispatcher *core.Dispatcher
	surface    *preview.Surface
	simulator  *simulate.Backend
	shell      *shell.Adapter
	chat       *mentor.Chat
	quiz       *mentor.QuizGenerator
	bus        *eventbus.Bus
	hub        *httpapi.Hub
	logger     pslog.Logger

	mu         sync.Mutex
	previewURL string
}

// NewStudio constructs a studio.
func NewStudio(cfg StudioConfig) (*Studio, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	lang := cfg.Language
	if lang == "" {
		lang = schema.LanguageJavaScript
	}
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %s", schema.ErrInvalidLanguage, lang)
	}
	project, err := core.NewProjectFromFiles(lang, cfg.Files, cfg.Active)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(logger)
	hub := httpapi.NewHub(cfg.HubHistory, logger)
	sinks := make([]core.EventSink, 0, len(cfg.Sinks)+1)
	sinks = append(sinks, bus)
	sinks = append(sinks, cfg.Sinks...)
	fanout := eventFanout{sinks: sinks, previews: []preview.Sink{bus}}

	surface := preview.NewSurface(fanout)
	simulator := simulate.New(simulate.Config{Generator: cfg.Generator, Timeout: cfg.RemoteTimeout})
	dispatcher, err := core.NewDispatcher(core.DispatcherDeps{
		Backends: []core.Backend{
			sandbox.New(cfg.Sandbox),
			preview.NewBackend(cfg.Preview, surface),
			simulator,
		},
		Output: core.NewOutputChannel(cfg.OutputMaxEntries),
		Sink:   fanout,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &Studio{
		project:    project,
		dispatcher: dispatcher,
		surface:    surface,
		simulator:  simulator,
		shell:      shell.NewAdapter(shell.Config{Remote: simulator, Logger: logger}),
		chat:       mentor.NewChat(mentor.ChatConfig{Generator: cfg.Generator, Store: cfg.Store, Logger: logger}),
		quiz:       mentor.NewQuizGenerator(cfg.Generator, logger),
		bus:        bus,
		hub:        hub,
		logger:     logger,
	}, nil
}

// Language returns the project language.
func (s *Studio) Language() schema.Language {
	return s.project.Language()
}

// SetLanguage switches language. The project resets to the starter file,
// any running program is canceled and the output channel cleared.
func (s *Studio) SetLanguage(lang schema.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %s", schema.ErrInvalidLanguage, lang)
	}
	s.dispatcher.Reset()
	s.project.Reset(lang)
	s.logger.Info("studio language switched", "language", lang)
	return nil
}

// Project returns the editable project.
func (s *Studio) Project() *core.Project {
	return s.project
}

// Dispatcher returns the execution dispatcher.
func (s *Studio) Dispatcher() *core.Dispatcher {
	return s.dispatcher
}

// Surface returns the preview surface.
func (s *Studio) Surface() *preview.Surface {
	return s.surface
}

// Bus returns the event bus.
func (s *Studio) Bus() *eventbus.Bus {
	return s.bus
}

// ShellAdapter returns the interactive shell adapter.
func (s *Studio) ShellAdapter() *shell.Adapter {
	return s.shell
}

// Run dispatches the current project snapshot.
func (s *Studio) Run(ctx context.Context) (*core.Session, error) {
	return s.dispatcher.Run(ctx, s.project.Snapshot())
}

// Cancel aborts the running program.
func (s *Studio) Cancel() bool {
	return s.dispatcher.Cancel()
}

// Shell answers one interactive shell line. Replies are appended to the
// output channel.
func (s *Studio) Shell(ctx context.Context, input string) error {
	return s.shell.Execute(ctx, schema.ShellRequest{Language: s.project.Language(), Input: input}, s.dispatcher.Append)
}

// Format rewrites the active file with the formatter. On failure the file
// is left untouched.
func (s *Studio) Format() error {
	req := s.project.Snapshot()
	formatted, err := formatter.Format(req.Language, req.Source())
	if err != nil {
		s.logger.Warn("studio format failed", "language", req.Language, "file", req.ActiveFile, "err", err)
		return err
	}
	return s.project.Write(req.ActiveFile, formatted)
}

// Chat sends text to the mentor with the current project as context.
func (s *Studio) Chat(ctx context.Context, text string) (schema.ChatMessage, error) {
	req := s.project.Snapshot()
	return s.chat.Send(ctx, text, mentor.ProjectContext{Language: req.Language, Files: req.Files})
}

// ChatHistory returns the mentor transcript.
func (s *Studio) ChatHistory() []schema.ChatMessage {
	return s.chat.History()
}

// ClearChat resets the mentor transcript.
func (s *Studio) ClearChat() {
	s.chat.Clear()
}

// Quiz generates questions for the current language.
func (s *Studio) Quiz(ctx context.Context, difficulty schema.Difficulty) ([]schema.QuizQuestion, error) {
	return s.quiz.Generate(ctx, s.project.Language(), difficulty)
}

// PreviewURL returns the address of the running preview server, if any.
func (s *Studio) PreviewURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewURL
}

// PreviewHandler returns the preview server handler.
func (s *Studio) PreviewHandler(cfg httpapi.Config) *httpapi.Server {
	return httpapi.NewServer(cfg, s.surface, s.hub, s.logger)
}

// ServePreview serves the preview page on ln until ctx ends.
func (s *Studio) ServePreview(ctx context.Context, ln net.Listener, cfg httpapi.Config) error {
	if ln == nil {
		return errors.New("missing listener")
	}
	events, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()
	go s.hub.Consume(ctx, events)

	s.mu.Lock()
	s.previewURL = ListenerURL(ln.Addr(), cfg.BasePath)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.previewURL = ""
		s.mu.Unlock()
	}()
	return httpapi.Serve(ctx, ln, s.PreviewHandler(cfg).Handler())
}

// ListenerURL returns the browser address for a preview listener.
func ListenerURL(addr net.Addr, basePath string) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + "/"
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + httpapi.MountPath(basePath)
}

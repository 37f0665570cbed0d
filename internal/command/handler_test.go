package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/schema"
)

type stubBackend struct {
	lines []string
	err   error
}

func (b stubBackend) Kind() core.BackendKind { return core.BackendScript }

func (b stubBackend) Execute(_ context.Context, _ schema.RunRequest, emit core.Emitter) error {
	for _, line := range b.lines {
		emit(schema.SeverityInfo, line)
	}
	return b.err
}

type fakeWorkspace struct {
	project    *core.Project
	dispatcher *core.Dispatcher
	shell      []string
	chat       []string
	chatErr    error
	cleared    int
	quiz       []schema.QuizQuestion
	quizErr    error
	difficulty schema.Difficulty
	formatErr  error
	previewURL string
}

func newFakeWorkspace(t *testing.T, backend core.Backend) *fakeWorkspace {
	t.Helper()
	d, err := core.NewDispatcher(core.DispatcherDeps{Backends: []core.Backend{backend}})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return &fakeWorkspace{project: core.NewProject(schema.LanguageJavaScript), dispatcher: d}
}

func (w *fakeWorkspace) Language() schema.Language { return w.project.Language() }

func (w *fakeWorkspace) SetLanguage(lang schema.Language) error {
	w.project.Reset(lang)
	w.dispatcher.Reset()
	return nil
}

func (w *fakeWorkspace) Project() *core.Project { return w.project }

func (w *fakeWorkspace) Run(ctx context.Context) (*core.Session, error) {
	return w.dispatcher.Run(ctx, w.project.Snapshot())
}

func (w *fakeWorkspace) Cancel() bool { return w.dispatcher.Cancel() }

func (w *fakeWorkspace) Shell(_ context.Context, input string) error {
	w.shell = append(w.shell, input)
	return nil
}

func (w *fakeWorkspace) Format() error { return w.formatErr }

func (w *fakeWorkspace) Chat(_ context.Context, text string) (schema.ChatMessage, error) {
	w.chat = append(w.chat, text)
	if w.chatErr != nil {
		return schema.ChatMessage{}, w.chatErr
	}
	return schema.ChatMessage{ID: "r", Role: schema.RoleModel, Text: "reply to " + text}, nil
}

func (w *fakeWorkspace) ChatHistory() []schema.ChatMessage {
	return []schema.ChatMessage{{ID: "init", Role: schema.RoleModel, Text: "hello"}}
}

func (w *fakeWorkspace) ClearChat() { w.cleared++ }

func (w *fakeWorkspace) Quiz(_ context.Context, difficulty schema.Difficulty) ([]schema.QuizQuestion, error) {
	w.difficulty = difficulty
	return w.quiz, w.quizErr
}

func (w *fakeWorkspace) PreviewURL() string { return w.previewURL }

func newTestHandler(t *testing.T, backend core.Backend) (*Handler, *fakeWorkspace, *bytes.Buffer) {
	t.Helper()
	ws := newFakeWorkspace(t, backend)
	out := &bytes.Buffer{}
	return NewHandler(ws, HandlerConfig{Out: out}), ws, out
}

func TestParse(t *testing.T) {
	cmd, ok := Parse("  /Chat  explain   closures please")
	if !ok {
		t.Fatalf("expected slash command")
	}
	if cmd.Name != "chat" {
		t.Fatalf("expected chat, got %q", cmd.Name)
	}
	if cmd.Remainder != "explain   closures please" {
		t.Fatalf("unexpected remainder: %q", cmd.Remainder)
	}
	if len(cmd.Args) != 3 {
		t.Fatalf("expected 3 args, got %v", cmd.Args)
	}
	if _, ok := Parse("db.products.find()"); ok {
		t.Fatalf("expected plain line to not parse")
	}
	if cmd, _ := Parse("/q"); cmd.Name != "quit" {
		t.Fatalf("expected alias to resolve to quit, got %q", cmd.Name)
	}
	if cmd, ok := Parse("/"); !ok || cmd.Name != "" {
		t.Fatalf("expected empty command, got %+v", cmd)
	}
}

func TestHandleRunWaitsForSession(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{lines: []string{"hello"}})
	if err := h.Handle(context.Background(), "/run"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out.String(), "run done") {
		t.Fatalf("expected run status line, got %q", out.String())
	}
	lines := ws.dispatcher.Output().Lines()
	if len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("unexpected output lines: %v", lines)
	}
}

func TestHandleRunReportsError(t *testing.T) {
	h, _, out := newTestHandler(t, stubBackend{err: core.NewExecError(core.ErrorRuntime, "run", errors.New("boom"))})
	if err := h.Handle(context.Background(), "/run"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out.String(), "run error") {
		t.Fatalf("expected error status, got %q", out.String())
	}
}

func TestHandleFileCommands(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "/new util.js"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if ws.project.Active() != "util.js" {
		t.Fatalf("expected util.js active, got %q", ws.project.Active())
	}
	if err := h.Handle(ctx, "/new util.js"); !errors.Is(err, core.ErrFileExists) {
		t.Fatalf("expected ErrFileExists, got %v", err)
	}
	if err := h.Handle(ctx, "/open main.js"); err != nil {
		t.Fatalf("open: %v", err)
	}
	out.Reset()
	if err := h.Handle(ctx, "/files"); err != nil {
		t.Fatalf("files: %v", err)
	}
	if out.String() != "* main.js\n  util.js\n" {
		t.Fatalf("unexpected files listing: %q", out.String())
	}
	if err := h.Handle(ctx, "/rm main.js"); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if ws.project.Active() != "util.js" {
		t.Fatalf("expected util.js active after delete, got %q", ws.project.Active())
	}
	if err := h.Handle(ctx, "/rm util.js"); !errors.Is(err, core.ErrLastFile) {
		t.Fatalf("expected ErrLastFile, got %v", err)
	}
	if err := h.Handle(ctx, "/open"); err == nil || !strings.Contains(err.Error(), "usage: /open") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestHandleWriteMode(t *testing.T) {
	h, ws, _ := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "/write"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if h.Prompt() != "... " || !h.Modal() {
		t.Fatalf("expected continuation prompt, got %q", h.Prompt())
	}
	for _, line := range []string{"const a = 1;", "/run", "console.log(a);", "."} {
		if err := h.Handle(ctx, line); err != nil {
			t.Fatalf("Handle(%q): %v", line, err)
		}
	}
	source, _ := ws.project.Source("main.js")
	if source != "const a = 1;\n/run\nconsole.log(a);\n" {
		t.Fatalf("unexpected source: %q", source)
	}
	if !strings.HasPrefix(h.Prompt(), "codelab(javascript)") || h.Modal() {
		t.Fatalf("expected normal prompt, got %q", h.Prompt())
	}
}

func TestHandleLoadAndShow(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "extra.js")
	if err := os.WriteFile(path, []byte("let x = 1;\nlet y = 2;\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := h.Handle(ctx, "/load "+path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ws.project.Active() != "extra.js" {
		t.Fatalf("expected extra.js active, got %q", ws.project.Active())
	}
	out.Reset()
	if err := h.Handle(ctx, "/show"); err != nil {
		t.Fatalf("show: %v", err)
	}
	want := "--- extra.js ---\n1  let x = 1;\n2  let y = 2;\n"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestHandleLangResetsProject(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "/new extra.js"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := h.Handle(ctx, "/lang python"); err != nil {
		t.Fatalf("lang: %v", err)
	}
	if ws.project.Language() != schema.LanguagePython {
		t.Fatalf("expected python, got %s", ws.project.Language())
	}
	if files := ws.project.Files(); len(files) != 1 || files[0] != "main.py" {
		t.Fatalf("expected fresh python project, got %v", files)
	}
	if !strings.Contains(out.String(), "language: Python (main.py)") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if err := h.Handle(ctx, "/lang cobol"); !errors.Is(err, schema.ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}
}

func TestPlainLinesGoToShell(t *testing.T) {
	h, ws, _ := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "1 + 1"); err == nil || !strings.Contains(err.Error(), "no interactive shell") {
		t.Fatalf("expected no shell error, got %v", err)
	}
	if err := h.Handle(ctx, "/lang mongodb"); err != nil {
		t.Fatalf("lang: %v", err)
	}
	if err := h.Handle(ctx, "  show dbs  "); err != nil {
		t.Fatalf("shell: %v", err)
	}
	if err := h.Handle(ctx, "   "); err != nil {
		t.Fatalf("blank: %v", err)
	}
	if len(ws.shell) != 1 || ws.shell[0] != "show dbs" {
		t.Fatalf("unexpected shell calls: %v", ws.shell)
	}
}

func TestHandleChat(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "/chat what is a closure?"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(ws.chat) != 1 || ws.chat[0] != "what is a closure?" {
		t.Fatalf("unexpected chat calls: %v", ws.chat)
	}
	if !strings.Contains(out.String(), "reply to what is a closure?") {
		t.Fatalf("expected reply, got %q", out.String())
	}
	if err := h.Handle(ctx, "/preset 2"); err != nil {
		t.Fatalf("preset: %v", err)
	}
	if ws.chat[1] != "Start a mock interview for a Senior Dev role" {
		t.Fatalf("unexpected preset prompt: %q", ws.chat[1])
	}
	if err := h.Handle(ctx, "/preset 9"); err == nil {
		t.Fatalf("expected out of range preset error")
	}
	if err := h.Handle(ctx, "/clear-chat"); err != nil || ws.cleared != 1 {
		t.Fatalf("expected clear, got err=%v cleared=%d", err, ws.cleared)
	}
	ws.chatErr = remote.ErrNoCredential
	if err := h.Handle(ctx, "/chat hi"); !errors.Is(err, remote.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestHandleQuizFlow(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ws.quiz = []schema.QuizQuestion{
		{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
		{Question: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
	}
	ctx := context.Background()
	if err := h.Handle(ctx, "/quiz advanced"); err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if ws.difficulty != schema.DifficultyAdvanced {
		t.Fatalf("expected advanced, got %s", ws.difficulty)
	}
	if !strings.HasPrefix(h.Prompt(), "answer") {
		t.Fatalf("expected quiz prompt, got %q", h.Prompt())
	}
	if err := h.Handle(ctx, "seven"); err == nil {
		t.Fatalf("expected invalid answer error")
	}
	if err := h.Handle(ctx, "2"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := h.Handle(ctx, "1"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "correct\n") || !strings.Contains(text, "incorrect, the answer is 4. d") {
		t.Fatalf("unexpected quiz output: %q", text)
	}
	if !strings.Contains(text, "score: 1/2") {
		t.Fatalf("expected score line, got %q", text)
	}
	if strings.HasPrefix(h.Prompt(), "answer") {
		t.Fatalf("expected quiz mode to end")
	}
}

func TestHandleQuizFallbackAndExit(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ws.quiz = []schema.QuizQuestion{{Question: "Q", Options: []string{"a", "b", "c", "d"}}}
	ws.quizErr = remote.ErrNoCredential
	ctx := context.Background()
	if err := h.Handle(ctx, "/quiz"); err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if ws.difficulty != schema.DifficultyIntermediate {
		t.Fatalf("expected default difficulty, got %s", ws.difficulty)
	}
	if !strings.Contains(out.String(), "placeholder question") {
		t.Fatalf("expected fallback notice, got %q", out.String())
	}
	if err := h.Handle(ctx, "exit"); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if !strings.Contains(out.String(), "score: 0/1") {
		t.Fatalf("expected score on exit, got %q", out.String())
	}
}

func TestHandleMisc(t *testing.T) {
	h, ws, out := newTestHandler(t, stubBackend{})
	ctx := context.Background()
	if err := h.Handle(ctx, "/quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("expected ErrQuit, got %v", err)
	}
	if err := h.Handle(ctx, "/bogus"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command, got %v", err)
	}
	if err := h.Handle(ctx, "/help"); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, spec := range Specs {
		if !strings.Contains(out.String(), "/"+spec.Name) {
			t.Fatalf("expected help to list /%s", spec.Name)
		}
	}
	out.Reset()
	if err := h.Handle(ctx, "/stop"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(out.String(), "nothing is running") {
		t.Fatalf("unexpected stop output: %q", out.String())
	}
	ws.formatErr = errors.New("has comments")
	if err := h.Handle(ctx, "/format"); err == nil {
		t.Fatalf("expected format error")
	}
	ws.previewURL = "http://127.0.0.1:3000/"
	out.Reset()
	if err := h.Handle(ctx, "/preview"); err != nil || out.String() != "preview: http://127.0.0.1:3000/\n" {
		t.Fatalf("unexpected preview output: %q err=%v", out.String(), err)
	}
}

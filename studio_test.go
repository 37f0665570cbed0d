package codelab

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/httpapi"
	"pkt.systems/codelab/internal/eventbus"
	"pkt.systems/codelab/internal/mentor"
	"pkt.systems/codelab/internal/persist"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/internal/sandbox"
	"pkt.systems/codelab/schema"
)

type recordingSink struct {
	outputs  []schema.OutputEvent
	statuses []schema.StatusEvent
}

func (s *recordingSink) OnOutput(event schema.OutputEvent) { s.outputs = append(s.outputs, event) }
func (s *recordingSink) OnStatus(event schema.StatusEvent) { s.statuses = append(s.statuses, event) }

func newTestStudio(t *testing.T, lang schema.Language, files map[string]string) (*Studio, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	studio, err := NewStudio(StudioConfig{Language: lang, Files: files, Sinks: []core.EventSink{sink}})
	if err != nil {
		t.Fatalf("NewStudio: %v", err)
	}
	return studio, sink
}

func runAndWait(t *testing.T, studio *Studio) schema.RunStatus {
	t.Helper()
	session, err := studio.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, _ := session.Wait(ctx)
	return status
}

func TestStudioRunsScript(t *testing.T) {
	studio, sink := newTestStudio(t, schema.LanguageJavaScript, map[string]string{
		"main.js": "console.log('hi'); console.warn('careful');",
	})
	if status := runAndWait(t, studio); status != schema.RunDone {
		t.Fatalf("expected done, got %s", status)
	}
	lines := studio.Dispatcher().Output().Lines()
	if len(lines) != 2 || lines[0] != "hi" || lines[1] != "careful" {
		t.Fatalf("unexpected output: %v", lines)
	}
	if len(sink.outputs) != 2 || sink.outputs[1].Severity != schema.SeverityWarn {
		t.Fatalf("expected sink to receive output, got %+v", sink.outputs)
	}
	if len(sink.statuses) != 2 || sink.statuses[1].Status != schema.RunDone {
		t.Fatalf("unexpected statuses: %+v", sink.statuses)
	}
}

func TestStudioTimeoutReportsOnce(t *testing.T) {
	sink := &recordingSink{}
	studio, err := NewStudio(StudioConfig{
		Language: schema.LanguageJavaScript,
		Files:    map[string]string{"main.js": "while (true) {}"},
		Sandbox:  sandbox.Config{Timeout: 300 * time.Millisecond},
		Sinks:    []core.EventSink{sink},
	})
	if err != nil {
		t.Fatalf("NewStudio: %v", err)
	}
	if status := runAndWait(t, studio); status != schema.RunTimeout {
		t.Fatalf("expected timeout, got %s", status)
	}
	time.Sleep(100 * time.Millisecond)
	lines := studio.Dispatcher().Output().Lines()
	if len(lines) != 1 {
		t.Fatalf("expected a single output line, got %q", lines)
	}
	if lines[0] != "Error: Time Limit Exceeded (300ms)" {
		t.Fatalf("unexpected timeout line %q", lines[0])
	}
	if len(sink.statuses) != 2 || sink.statuses[0].Status != schema.RunStarted || sink.statuses[1].Status != schema.RunTimeout {
		t.Fatalf("expected started then timeout, got %+v", sink.statuses)
	}
}

func TestStudioRemoteWithoutCredential(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguagePython, nil)
	if status := runAndWait(t, studio); status != schema.RunError {
		t.Fatalf("expected error, got %s", status)
	}
	joined := strings.Join(studio.Dispatcher().Output().Lines(), "\n")
	if !strings.Contains(joined, "Service Unavailable") {
		t.Fatalf("expected service unavailable line, got %q", joined)
	}
}

func TestStudioReactPublishesPreview(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageReact, nil)
	events, cancel := studio.Bus().Subscribe()
	defer cancel()
	if status := runAndWait(t, studio); status != schema.RunDone {
		t.Fatalf("expected done, got %s", status)
	}
	event, doc, ok := studio.Surface().Latest()
	if !ok || event.Key != 1 || !strings.Contains(doc, "<html") {
		t.Fatalf("expected published document, got key=%d ok=%v", event.Key, ok)
	}
	deadline := time.After(time.Second)
	for {
		select {
		case got := <-events:
			if got.Type == eventbus.EventPreview {
				if got.Preview.Key != 1 {
					t.Fatalf("unexpected preview event: %+v", got.Preview)
				}
				return
			}
		case <-deadline:
			t.Fatalf("expected preview event on bus")
		}
	}
}

func TestStudioSetLanguageResets(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageJavaScript, map[string]string{"main.js": "console.log(1)"})
	runAndWait(t, studio)
	if studio.Dispatcher().Output().Len() == 0 {
		t.Fatalf("expected output before switch")
	}
	if err := studio.SetLanguage(schema.LanguageMongoDB); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if studio.Dispatcher().Output().Len() != 0 {
		t.Fatalf("expected cleared output")
	}
	if files := studio.Project().Files(); len(files) != 1 || files[0] != "query.js" {
		t.Fatalf("expected starter project, got %v", files)
	}
	if err := studio.SetLanguage("cobol"); !errors.Is(err, schema.ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}
}

func TestStudioShellAnswersLocally(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageMongoDB, nil)
	if err := studio.Shell(context.Background(), "show dbs"); err != nil {
		t.Fatalf("Shell: %v", err)
	}
	lines := studio.Dispatcher().Output().Lines()
	if len(lines) != 2 || lines[0] != "CMD:show dbs" || !strings.Contains(lines[1], "production_db") {
		t.Fatalf("unexpected shell output: %v", lines)
	}
	if err := studio.Shell(context.Background(), "db.users.countDocuments()"); err != nil {
		t.Fatalf("Shell: %v", err)
	}
	lines = studio.Dispatcher().Output().Lines()
	if lines[len(lines)-1] != "Connection Error" {
		t.Fatalf("expected connection error without credential, got %v", lines)
	}

	jsStudio, _ := newTestStudio(t, schema.LanguageJavaScript, nil)
	if err := jsStudio.Shell(context.Background(), "1+1"); err == nil {
		t.Fatalf("expected error for language without shell")
	}
}

func TestStudioFormat(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageJavaScript, map[string]string{"main.js": "const a=1;let b=[1,2]"})
	if err := studio.Format(); err != nil {
		t.Fatalf("Format: %v", err)
	}
	source, _ := studio.Project().Source("main.js")
	if source != "const a = 1;\nlet b = [1, 2];\n" {
		t.Fatalf("unexpected formatted source: %q", source)
	}
	broken, _ := newTestStudio(t, schema.LanguageJavaScript, map[string]string{"main.js": "const = ;"})
	if err := broken.Format(); err == nil {
		t.Fatalf("expected syntax error")
	}
	if source, _ := broken.Project().Source("main.js"); source != "const = ;" {
		t.Fatalf("expected source untouched, got %q", source)
	}
}

func TestStudioChatPersistsTranscript(t *testing.T) {
	store, err := persist.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	studio, err := NewStudio(StudioConfig{Store: store})
	if err != nil {
		t.Fatalf("NewStudio: %v", err)
	}
	if _, err := studio.Chat(context.Background(), "hello?"); !errors.Is(err, remote.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	var saved []schema.ChatMessage
	ok, err := store.Load(mentor.HistoryKey, &saved)
	if err != nil || !ok {
		t.Fatalf("expected saved transcript, ok=%v err=%v", ok, err)
	}
	if len(saved) != 2 || saved[1].Text != "hello?" {
		t.Fatalf("unexpected transcript: %+v", saved)
	}
	studio.ClearChat()
	if history := studio.ChatHistory(); len(history) != 1 || history[0].ID != "init" {
		t.Fatalf("expected welcome transcript, got %+v", history)
	}
}

func TestStudioQuizFallsBack(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageJavaScript, nil)
	questions, err := studio.Quiz(context.Background(), schema.DifficultyBeginner)
	if err == nil {
		t.Fatalf("expected error without credential")
	}
	if len(questions) != 1 || questions[0].Question != mentor.FallbackQuestion.Question {
		t.Fatalf("expected fallback question, got %+v", questions)
	}
}

func TestStudioServePreview(t *testing.T) {
	studio, _ := newTestStudio(t, schema.LanguageReact, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- studio.ServePreview(ctx, ln, httpapi.Config{}) }()

	deadline := time.Now().Add(2 * time.Second)
	for studio.PreviewURL() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	url := studio.PreviewURL()
	if !strings.HasPrefix(url, "http://127.0.0.1:") {
		t.Fatalf("unexpected preview url: %q", url)
	}
	runAndWait(t, studio)

	var body []byte
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "doc/1")
		if err == nil {
			body, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !bytes.Contains(body, []byte("data-render-id")) {
		t.Fatalf("expected rendered document, got %q", body)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ServePreview: %v", err)
		}
	case <-time.After(2 * shutdownWait):
		t.Fatalf("preview server did not stop")
	}
	if studio.PreviewURL() != "" {
		t.Fatalf("expected preview url to clear after shutdown")
	}
}

const shutdownWait = 5 * time.Second

func TestPrinterFormatsSeverity(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.OnOutput(schema.OutputEvent{Severity: schema.SeverityInfo, Text: "plain"})
	p.OnOutput(schema.OutputEvent{Severity: schema.SeverityError, Text: "Runtime Error: boom"})
	if buf.String() != "plain\n[error] Runtime Error: boom\n" {
		t.Fatalf("unexpected printer output: %q", buf.String())
	}
	buf.Reset()
	colored := NewPrinter(&buf, true)
	colored.OnOutput(schema.OutputEvent{Severity: schema.SeverityWarn, Text: "w"})
	if buf.String() != ansiYellow+"w"+ansiReset+"\n" {
		t.Fatalf("unexpected colored output: %q", buf.String())
	}
}

func TestListenerURL(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4zero, Port: 3000}
	if got := ListenerURL(addr, ""); got != "http://127.0.0.1:3000/" {
		t.Fatalf("unexpected url: %q", got)
	}
	if got := ListenerURL(&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8080}, "/lab/"); got != "http://127.0.0.1:8080/lab/" {
		t.Fatalf("unexpected url with base path: %q", got)
	}
}

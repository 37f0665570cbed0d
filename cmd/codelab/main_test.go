package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/codelab"
	"pkt.systems/codelab/internal/mentor"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/schema"
)

func executeRoot(t *testing.T, home, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NO_COLOR", "1")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(home, "config.yaml")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestArgv0Alias(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "codelab-sandbox-worker", want: sandboxWorkerCmdName},
		{base: "codelab", want: ""},
	}
	for _, tc := range tests {
		if got := argv0Alias(tc.base); got != tc.want {
			t.Fatalf("argv0Alias(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestApplyArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "empty", args: nil, want: nil},
		{name: "no-alias", args: []string{"codelab", "run"}, want: []string{"codelab", "run"}},
		{name: "worker", args: []string{"/usr/bin/codelab-sandbox-worker"}, want: []string{"/usr/bin/codelab-sandbox-worker", sandboxWorkerCmdName}},
	}
	for _, tc := range tests {
		got := applyArgv0Alias(tc.args)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: applyArgv0Alias length = %d, want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: applyArgv0Alias[%d] = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"run", "shell", "render", "preview", "chat", "quiz", "format", "studio", "config", "version", sandboxWorkerCmdName}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected root command to include %s", name)
		}
	}
	worker, _, _ := root.Find([]string{sandboxWorkerCmdName})
	if !worker.Hidden {
		t.Fatalf("expected sandbox worker command to be hidden")
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatalf("expected global --config flag")
	}
}

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		name string
		want schema.Language
		ok   bool
	}{
		{name: "main.js", want: schema.LanguageJavaScript, ok: true},
		{name: "App.JSX", want: schema.LanguageReact, ok: true},
		{name: "main.py", want: schema.LanguagePython, ok: true},
		{name: "Main.java", want: schema.LanguageJava, ok: true},
		{name: "main.cc", want: schema.LanguageCPP, ok: true},
		{name: "notes.txt", ok: false},
	}
	for _, tc := range tests {
		got, ok := languageForFile(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("languageForFile(%q) = %q/%v, want %q/%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestReadProject(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "App.jsx", "export default function App() {}")
	second := writeFile(t, dir, "util.js", "export const x = 1;")

	lang, files, active, err := readProject([]string{first, second}, "")
	if err != nil {
		t.Fatalf("readProject: %v", err)
	}
	if lang != schema.LanguageReact || active != "App.jsx" || len(files) != 2 {
		t.Fatalf("unexpected project: lang=%s active=%s files=%v", lang, active, files)
	}

	lang, _, _, err = readProject([]string{second}, "mongodb")
	if err != nil || lang != schema.LanguageMongoDB {
		t.Fatalf("expected explicit language, got %s err=%v", lang, err)
	}

	lang, files, _, err = readProject(nil, "")
	if err != nil || lang != schema.LanguageJavaScript || files != nil {
		t.Fatalf("expected javascript starter, got %s files=%v err=%v", lang, files, err)
	}

	other := filepath.Join(dir, "sub")
	if err := os.Mkdir(other, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dup := writeFile(t, other, "util.js", "")
	if _, _, _, err := readProject([]string{second, dup}, ""); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	notes := writeFile(t, dir, "notes.txt", "")
	if _, _, _, err := readProject([]string{notes}, ""); err == nil {
		t.Fatalf("expected language inference error")
	}
	if _, _, _, err := readProject([]string{second}, "cobol"); !errors.Is(err, schema.ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}
}

func TestStatusExitCodes(t *testing.T) {
	if err := statusError(schema.RunDone, nil); err != nil {
		t.Fatalf("expected nil for done, got %v", err)
	}
	tests := []struct {
		status schema.RunStatus
		code   int
	}{
		{status: schema.RunError, code: 1},
		{status: schema.RunTimeout, code: 124},
		{status: schema.RunCanceled, code: 130},
	}
	for _, tc := range tests {
		var exit *exitError
		if err := statusError(tc.status, nil); !errors.As(err, &exit) || exit.code != tc.code {
			t.Fatalf("statusError(%s) = %v, want exit code %d", tc.status, err, tc.code)
		}
	}
}

func TestRunCmdScript(t *testing.T) {
	home := t.TempDir()
	path := writeFile(t, home, "main.js", "console.log('hi'); console.error('oops');")
	out, err := executeRoot(t, home, "", "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "hi\n") || !strings.Contains(out, "[error] oops") {
		t.Fatalf("unexpected run output: %q", out)
	}
}

func TestRunCmdFailureExitCode(t *testing.T) {
	home := t.TempDir()
	path := writeFile(t, home, "main.js", "throw new Error('boom')")
	out, err := executeRoot(t, home, "", "run", path)
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error output, got %q", out)
	}
}

func TestShellCmd(t *testing.T) {
	home := t.TempDir()
	out, err := executeRoot(t, home, "show dbs\nexit\nshow dbs\n", "shell", "--lang", "mongodb")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if strings.Count(out, "production_db") != 1 {
		t.Fatalf("expected one answer before exit, got %q", out)
	}
	if _, err := executeRoot(t, home, "", "shell", "--lang", "python"); err == nil {
		t.Fatalf("expected error for language without shell")
	}
}

func TestRenderCmd(t *testing.T) {
	home := t.TempDir()
	out, err := executeRoot(t, home, "export default function App() { return <h1>Hi</h1>; }", "render", "--render-id", "abc")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `data-render-id="abc"`) || !strings.Contains(out, "window.App = ") {
		t.Fatalf("unexpected document: %q", out)
	}
}

func TestFormatCmd(t *testing.T) {
	home := t.TempDir()
	path := writeFile(t, home, "main.js", "const a=1")
	out, err := executeRoot(t, home, "", "format", path)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if out != "const a = 1;\n" {
		t.Fatalf("unexpected formatted output: %q", out)
	}
	if _, err := executeRoot(t, home, "", "format", "--write", path); err != nil {
		t.Fatalf("format --write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "const a = 1;\n" {
		t.Fatalf("expected file rewritten, got %q err=%v", data, err)
	}
	py := writeFile(t, home, "main.py", "print(1)")
	if _, err := executeRoot(t, home, "", "format", py); err == nil {
		t.Fatalf("expected unsupported language error")
	}
}

func TestStudioCmd(t *testing.T) {
	home := t.TempDir()
	path := writeFile(t, home, "main.js", "console.log(40 + 2)")
	input := strings.Join([]string{"/files", "/run", "/bogus", "/quit", "/files"}, "\n") + "\n"
	out, err := executeRoot(t, home, input, "studio", "--no-preview", path)
	if err != nil {
		t.Fatalf("studio: %v", err)
	}
	for _, want := range []string{"codelab studio (JavaScript)", "* main.js", "42", "run done", "error: unknown command: /bogus"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in studio output, got %q", want, out)
		}
	}
	if strings.Count(out, "* main.js") != 1 {
		t.Fatalf("expected input after /quit to be ignored, got %q", out)
	}
}

func TestQuizCmdFallback(t *testing.T) {
	home := t.TempDir()
	out, err := executeRoot(t, home, "1\n", "quiz", "beginner")
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if !strings.Contains(out, mentor.FallbackQuestion.Question) || !strings.Contains(out, "score: 1/1") {
		t.Fatalf("unexpected quiz output: %q", out)
	}
}

func TestChatCmdWithoutCredential(t *testing.T) {
	home := t.TempDir()
	if _, err := executeRoot(t, home, "", "chat", "what", "is", "a", "closure?"); !errors.Is(err, remote.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	out, err := executeRoot(t, home, "", "chat", "--history")
	if err != nil {
		t.Fatalf("chat --history: %v", err)
	}
	if !strings.Contains(out, "closure?") {
		t.Fatalf("expected persisted user message in history, got %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()
	out, err := executeRoot(t, home, "", "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, filepath.Join(home, "config.yaml")) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := executeRoot(t, home, "", "config", "init"); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := executeRoot(t, home, "", "config", "init", "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	out, err = executeRoot(t, home, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "config_version: 1") || !strings.Contains(out, "127.0.0.1:3000") {
		t.Fatalf("unexpected config show output: %q", out)
	}
}

func TestVersionCmdListsEngines(t *testing.T) {
	out, err := executeRoot(t, t.TempDir(), "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"github.com/dop251/goja", "github.com/evanw/esbuild", "google.golang.org/genai"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in version output %q", want, out)
		}
	}
}

func TestLineLoop(t *testing.T) {
	var seen []string
	err := lineLoop(context.Background(), strings.NewReader("a\nb\nstop\nc\n"), &bytes.Buffer{}, nil, func(ctx context.Context, line string) error {
		if line == "stop" {
			return errStopLoop
		}
		seen = append(seen, line)
		return nil
	})
	if err != nil {
		t.Fatalf("lineLoop: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("unexpected lines: %v", seen)
	}

	var prompts bytes.Buffer
	failure := errors.New("boom")
	err = lineLoop(context.Background(), strings.NewReader("x\n"), &prompts, func() string { return "> " }, func(ctx context.Context, line string) error {
		return failure
	})
	if !errors.Is(err, failure) || prompts.String() != "> " {
		t.Fatalf("expected handler error after one prompt, got %v %q", err, prompts.String())
	}
}

func TestFileWatcherReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "App.jsx", "export default function App() { return null; }")
	studio, err := codelab.NewStudio(codelab.StudioConfig{
		Language: schema.LanguageReact,
		Files:    map[string]string{"App.jsx": "export default function App() { return null; }"},
	})
	if err != nil {
		t.Fatalf("NewStudio: %v", err)
	}
	watcher := newFileWatcher([]string{path})
	if changed, err := watcher.poll(studio); err != nil || changed {
		t.Fatalf("expected no change, got changed=%v err=%v", changed, err)
	}
	writeFile(t, dir, "App.jsx", "export default function App() { return 1; }")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	changed, err := watcher.poll(studio)
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if source, _ := studio.Project().Source("App.jsx"); !strings.Contains(source, "return 1;") {
		t.Fatalf("expected reloaded source, got %q", source)
	}
}

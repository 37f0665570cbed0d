package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/logx"
	"pkt.systems/codelab/internal/markdown"
	"pkt.systems/codelab/internal/mentor"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/schema"
)

// ErrQuit is returned by Handle when the user asks to leave.
var ErrQuit = errors.New("quit")

const maxLoadBytes = 1 << 20

// Workspace is the studio state driven by slash commands.
type Workspace interface {
	Language() schema.Language
	SetLanguage(lang schema.Language) error
	Project() *core.Project
	Run(ctx context.Context) (*core.Session, error)
	Cancel() bool
	Shell(ctx context.Context, input string) error
	Format() error
	Chat(ctx context.Context, text string) (schema.ChatMessage, error)
	ChatHistory() []schema.ChatMessage
	ClearChat()
	Quiz(ctx context.Context, difficulty schema.Difficulty) ([]schema.QuizQuestion, error)
	PreviewURL() string
}

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	// Out receives command replies. Run output is delivered separately.
	Out                 io.Writer
	Color               bool
	DisableAuditLogging bool
}

type writeState struct {
	file  string
	lines []string
}

// Handler routes studio input to workspace operations. Besides slash
// commands it owns two modal states: collecting file contents for /write and
// answering an active quiz.
type Handler struct {
	ws  Workspace
	cfg HandlerConfig
	now func() time.Time

	mu    sync.Mutex
	write *writeState
	quiz  *mentor.QuizSession
}

// NewHandler constructs a command handler.
func NewHandler(ws Workspace, cfg HandlerConfig) *Handler {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Handler{ws: ws, cfg: cfg, now: time.Now}
}

// Prompt returns the input prompt for the current mode.
func (h *Handler) Prompt() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.write != nil:
		return "... "
	case h.quiz != nil:
		return fmt.Sprintf("answer [1-%d]> ", schema.QuizOptionCount)
	default:
		return fmt.Sprintf("codelab(%s)> ", h.ws.Language())
	}
}

// Modal reports whether a /write entry or a quiz is in progress.
func (h *Handler) Modal() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.write != nil || h.quiz != nil
}

// Handle processes one input line. It returns ErrQuit when the studio should
// exit; any other error is meant to be shown to the user.
func (h *Handler) Handle(ctx context.Context, input string) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	h.mu.Lock()
	writing, quizzing := h.write != nil, h.quiz != nil
	h.mu.Unlock()
	switch {
	case writing:
		return h.handleWriteLine(ctx, input)
	case quizzing:
		return h.handleQuizAnswer(ctx, input)
	}

	lang := h.ws.Language()
	log := logx.WithLanguage(ctx, lang).With("input_len", len(input))
	cmd, ok := Parse(input)
	if !ok {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			return nil
		}
		if !lang.HasShell() {
			return fmt.Errorf("%s has no interactive shell; type /help for commands", lang.Label())
		}
		log.Info("command shell request")
		return h.ws.Shell(ctx, trimmed)
	}
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "slash", "command", strings.TrimSpace(input))
	}
	log = log.With("command", cmd.Name, "args", len(cmd.Args))
	log.Info("command slash request")
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return fmt.Errorf("invalid command")
	case "run":
		return h.handleRun(ctx)
	case "stop":
		return h.handleStop(ctx)
	case "lang":
		return h.handleLang(ctx, cmd)
	case "files":
		return h.handleFiles()
	case "open":
		return h.handleOpen(cmd)
	case "new":
		return h.handleNew(cmd)
	case "rm":
		return h.handleRemove(cmd)
	case "write":
		return h.handleWrite(cmd)
	case "load":
		return h.handleLoad(ctx, cmd)
	case "show":
		return h.handleShow(cmd)
	case "format":
		return h.handleFormat(ctx)
	case "preview":
		return h.handlePreview()
	case "chat":
		return h.handleChat(ctx, cmd.Remainder)
	case "history":
		return h.handleHistory()
	case "clear-chat":
		h.ws.ClearChat()
		h.println("chat cleared")
		return nil
	case "presets":
		return h.handlePresets()
	case "preset":
		return h.handlePreset(ctx, cmd)
	case "quiz":
		return h.handleQuiz(ctx, cmd)
	case "help":
		h.println(helpLines()...)
		return nil
	case "quit":
		return ErrQuit
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return fmt.Errorf("unknown command: /%s", cmd.Name)
	}
}

func (h *Handler) handleRun(ctx context.Context) error {
	log := logx.WithLanguage(ctx, h.ws.Language())
	session, err := h.ws.Run(ctx)
	if err != nil {
		log.Warn("command run failed", "err", err)
		return err
	}
	status, err := session.Wait(ctx)
	if err != nil && status == "" {
		return err
	}
	h.println(fmt.Sprintf("run %s (%s)", status, formatDuration(h.now().Sub(session.Started()))))
	if session.Language() == schema.LanguageReact && status == schema.RunDone {
		if url := h.ws.PreviewURL(); url != "" {
			h.println("preview: " + url)
		}
	}
	return nil
}

func (h *Handler) handleStop(ctx context.Context) error {
	if !h.ws.Cancel() {
		h.println("nothing is running")
		return nil
	}
	logx.Ctx(ctx).Info("command stop completed")
	return nil
}

func (h *Handler) handleLang(ctx context.Context, cmd Command) error {
	if len(cmd.Args) != 1 {
		return usageError("lang")
	}
	lang, err := schema.ParseLanguage(cmd.Args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", err, cmd.Args[0])
	}
	if err := h.ws.SetLanguage(lang); err != nil {
		return err
	}
	logx.WithLanguage(ctx, lang).Info("command lang completed")
	h.println(fmt.Sprintf("language: %s (%s)", lang.Label(), h.ws.Project().Active()))
	return nil
}

func (h *Handler) handleFiles() error {
	project := h.ws.Project()
	active := project.Active()
	lines := make([]string, 0, len(project.Files()))
	for _, name := range project.Files() {
		marker := "  "
		if name == active {
			marker = "* "
		}
		lines = append(lines, marker+name)
	}
	h.println(lines...)
	return nil
}

func (h *Handler) handleOpen(cmd Command) error {
	if len(cmd.Args) != 1 {
		return usageError("open")
	}
	if err := h.ws.Project().Select(cmd.Args[0]); err != nil {
		return fmt.Errorf("%w: %s", err, cmd.Args[0])
	}
	h.println("active file: " + cmd.Args[0])
	return nil
}

func (h *Handler) handleNew(cmd Command) error {
	if len(cmd.Args) != 1 {
		return usageError("new")
	}
	if err := h.ws.Project().Create(cmd.Args[0]); err != nil {
		return fmt.Errorf("%w: %s", err, cmd.Args[0])
	}
	h.println("file created: " + cmd.Args[0])
	return nil
}

func (h *Handler) handleRemove(cmd Command) error {
	if len(cmd.Args) != 1 {
		return usageError("rm")
	}
	project := h.ws.Project()
	if err := project.Delete(cmd.Args[0]); err != nil {
		return fmt.Errorf("%w: %s", err, cmd.Args[0])
	}
	h.println("file deleted: "+cmd.Args[0], "active file: "+project.Active())
	return nil
}

func (h *Handler) handleWrite(cmd Command) error {
	if len(cmd.Args) > 1 {
		return usageError("write")
	}
	project := h.ws.Project()
	name := project.Active()
	if len(cmd.Args) == 1 {
		name = cmd.Args[0]
	}
	if _, ok := project.Source(name); !ok {
		return fmt.Errorf("%w: %s", core.ErrFileNotFound, name)
	}
	h.mu.Lock()
	h.write = &writeState{file: name}
	h.mu.Unlock()
	h.println(fmt.Sprintf("writing %s, end with a line containing only '.'", name))
	return nil
}

func (h *Handler) handleWriteLine(ctx context.Context, line string) error {
	h.mu.Lock()
	state := h.write
	if strings.TrimRight(line, "\r") != "." {
		state.lines = append(state.lines, strings.TrimRight(line, "\r"))
		h.mu.Unlock()
		return nil
	}
	h.write = nil
	h.mu.Unlock()
	source := strings.Join(state.lines, "\n")
	if len(state.lines) > 0 {
		source += "\n"
	}
	if err := h.ws.Project().Write(state.file, source); err != nil {
		return err
	}
	logx.Ctx(ctx).Info("command write completed", "file", state.file, "lines", len(state.lines))
	h.println(fmt.Sprintf("%s: %d lines", state.file, len(state.lines)))
	return nil
}

func (h *Handler) handleLoad(ctx context.Context, cmd Command) error {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return usageError("load")
	}
	path := cmd.Args[0]
	name := filepath.Base(path)
	if len(cmd.Args) == 2 {
		name = cmd.Args[1]
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxLoadBytes {
		return fmt.Errorf("%s is larger than %d bytes", path, maxLoadBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	project := h.ws.Project()
	if _, ok := project.Source(name); !ok {
		if err := project.Create(name); err != nil {
			return fmt.Errorf("%w: %s", err, name)
		}
	}
	if err := project.Write(name, string(data)); err != nil {
		return err
	}
	if err := project.Select(name); err != nil {
		return err
	}
	logx.Ctx(ctx).Info("command load completed", "file", name, "bytes", len(data))
	h.println(fmt.Sprintf("loaded %s into %s", path, name))
	return nil
}

func (h *Handler) handleShow(cmd Command) error {
	if len(cmd.Args) > 1 {
		return usageError("show")
	}
	project := h.ws.Project()
	name := project.Active()
	if len(cmd.Args) == 1 {
		name = cmd.Args[0]
	}
	source, ok := project.Source(name)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrFileNotFound, name)
	}
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	width := len(strconv.Itoa(len(lines)))
	out := make([]string, 0, len(lines)+1)
	out = append(out, "--- "+name+" ---")
	for i, line := range lines {
		out = append(out, fmt.Sprintf("%*d  %s", width, i+1, line))
	}
	h.println(out...)
	return nil
}

func (h *Handler) handleFormat(ctx context.Context) error {
	if err := h.ws.Format(); err != nil {
		logx.Ctx(ctx).Warn("command format failed", "err", err)
		return err
	}
	h.println("formatted " + h.ws.Project().Active())
	return nil
}

func (h *Handler) handlePreview() error {
	url := h.ws.PreviewURL()
	if url == "" {
		h.println("preview server is not running")
		return nil
	}
	h.println("preview: " + url)
	return nil
}

func (h *Handler) handleChat(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return usageError("chat")
	}
	reply, err := h.ws.Chat(ctx, text)
	if err != nil {
		if errors.Is(err, remote.ErrNoCredential) {
			return fmt.Errorf("%w (set remote.api_key in the config file or export GEMINI_API_KEY)", err)
		}
		return err
	}
	h.println(markdown.Render(reply.Text, h.cfg.Color))
	return nil
}

func (h *Handler) handleHistory() error {
	for _, msg := range h.ws.ChatHistory() {
		h.println(fmt.Sprintf("[%s]", msg.Role), markdown.Render(msg.Text, h.cfg.Color), "")
	}
	return nil
}

func (h *Handler) handlePresets() error {
	lines := make([]string, 0, len(mentor.QuickActions))
	for i, action := range mentor.QuickActions {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, action.Label, action.Prompt))
	}
	h.println(lines...)
	return nil
}

func (h *Handler) handlePreset(ctx context.Context, cmd Command) error {
	if len(cmd.Args) != 1 {
		return usageError("preset")
	}
	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil || n < 1 || n > len(mentor.QuickActions) {
		return fmt.Errorf("preset must be between 1 and %d", len(mentor.QuickActions))
	}
	action := mentor.QuickActions[n-1]
	h.println("> " + action.Prompt)
	return h.handleChat(ctx, action.Prompt)
}

func (h *Handler) handleQuiz(ctx context.Context, cmd Command) error {
	if len(cmd.Args) > 1 {
		return usageError("quiz")
	}
	value := ""
	if len(cmd.Args) == 1 {
		value = cmd.Args[0]
	}
	difficulty, err := schema.ParseDifficulty(value)
	if err != nil {
		return fmt.Errorf("%w: %s", err, value)
	}
	questions, err := h.ws.Quiz(ctx, difficulty)
	if err != nil {
		logx.Ctx(ctx).Warn("command quiz degraded", "err", err)
		h.println("quiz generation failed, using a placeholder question: " + err.Error())
	}
	if len(questions) == 0 {
		return errors.New("no quiz questions available")
	}
	session := mentor.NewQuizSession(questions)
	h.mu.Lock()
	h.quiz = session
	h.mu.Unlock()
	h.println(fmt.Sprintf("%s quiz: %d questions, type 'exit' to stop", difficulty, session.Len()))
	h.printQuestion(session)
	return nil
}

func (h *Handler) handleQuizAnswer(ctx context.Context, input string) error {
	h.mu.Lock()
	session := h.quiz
	h.mu.Unlock()
	trimmed := strings.TrimSpace(input)
	switch strings.ToLower(trimmed) {
	case "":
		return nil
	case "exit", "/quit", "/exit":
		h.endQuiz(session)
		return nil
	}
	choice, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("answer with a number between 1 and %d, or 'exit'", schema.QuizOptionCount)
	}
	q, _ := session.Current()
	correct, err := session.Answer(choice - 1)
	if err != nil {
		return err
	}
	if correct {
		h.println("correct")
	} else {
		h.println(fmt.Sprintf("incorrect, the answer is %d. %s", q.CorrectIndex+1, q.Options[q.CorrectIndex]))
	}
	if session.Done() {
		logx.Ctx(ctx).Info("command quiz completed", "score", session.Score(), "questions", session.Len())
		h.endQuiz(session)
		return nil
	}
	h.printQuestion(session)
	return nil
}

func (h *Handler) endQuiz(session *mentor.QuizSession) {
	h.mu.Lock()
	h.quiz = nil
	h.mu.Unlock()
	lines := []string{fmt.Sprintf("score: %d/%d", session.Score(), session.Len())}
	for i, item := range session.Review() {
		mark := "x"
		if item.Correct {
			mark = "ok"
		}
		lines = append(lines, fmt.Sprintf("  %d. [%s] %s", i+1, mark, item.Question.Question))
	}
	h.println(lines...)
}

func (h *Handler) printQuestion(session *mentor.QuizSession) {
	q, ok := session.Current()
	if !ok {
		return
	}
	lines := []string{fmt.Sprintf("Question %d/%d: %s", session.Index()+1, session.Len(), q.Question)}
	for i, option := range q.Options {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, option))
	}
	h.println(lines...)
}

func (h *Handler) println(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(h.cfg.Out, line)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

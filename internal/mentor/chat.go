// Package mentor provides the chat mentor and the quiz generator, both backed
// by the remote text generation service.
package mentor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/internal/simulate"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// HistoryKey is the store key of the chat transcript.
const HistoryKey = "codelab_chat_history"

const (
	// WelcomeText seeds every fresh transcript.
	WelcomeText = "Welcome to **CodeLab**.\n\nI am your CodeLab companion. How can I assist you in your engineering journey today?"
	// TroubleText replaces the reply when the remote call fails.
	TroubleText = "I'm having trouble connecting. Please try again."
	// EmptyReplyText replaces an empty reply.
	EmptyReplyText = "No response."
)

// QuickAction is a preset prompt offered on an empty transcript.
type QuickAction struct {
	Label  string
	Prompt string
}

// QuickActions are the presets shown before the first user message.
var QuickActions = []QuickAction{
	{Label: "System Design", Prompt: "Teach me System Design basics"},
	{Label: "Mock Interview", Prompt: "Start a mock interview for a Senior Dev role"},
	{Label: "Explain Concept", Prompt: "Explain a complex concept in simple terms"},
	{Label: "Code Review", Prompt: "Review my code for best practices"},
}

// Store persists the transcript.
type Store interface {
	Load(key string, out any) (bool, error)
	Save(key string, value any) error
}

// ChatConfig wires a Chat.
type ChatConfig struct {
	Generator remote.Generator
	Store     Store
	Logger    pslog.Logger
}

// ProjectContext is the editor state a question refers to.
type ProjectContext struct {
	Language schema.Language
	Files    map[string]string
}

// Chat is the mentor transcript. Every mutation is persisted.
type Chat struct {
	gen   remote.Generator
	store Store
	log   pslog.Logger

	mu      sync.Mutex
	history []schema.ChatMessage
}

func welcome() []schema.ChatMessage {
	return []schema.ChatMessage{{ID: "init", Role: schema.RoleModel, Text: WelcomeText}}
}

// NewChat loads the persisted transcript, falling back to the welcome
// message when none is stored or it cannot be read.
func NewChat(cfg ChatConfig) *Chat {
	log := cfg.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	c := &Chat{gen: cfg.Generator, store: cfg.Store, log: log, history: welcome()}
	if cfg.Store == nil {
		return c
	}
	var saved []schema.ChatMessage
	ok, err := cfg.Store.Load(HistoryKey, &saved)
	switch {
	case err != nil:
		log.Warn("chat history load failed", "err", err)
	case ok && len(saved) > 0:
		c.history = saved
	}
	return c
}

// History returns a copy of the transcript.
func (c *Chat) History() []schema.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]schema.ChatMessage(nil), c.history...)
}

// Fresh reports whether the transcript holds only the welcome message.
func (c *Chat) Fresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history) == 1
}

// Clear resets the transcript to the welcome message.
func (c *Chat) Clear() {
	c.mu.Lock()
	c.history = welcome()
	c.persistLocked()
	c.mu.Unlock()
}

// Send appends text as a user message and then the mentor's reply. Without a
// credential the user message is kept and remote.ErrNoCredential returned.
func (c *Chat) Send(ctx context.Context, text string, project ProjectContext) (schema.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return schema.ChatMessage{}, schema.ErrEmptyPrompt
	}
	c.append(schema.ChatMessage{ID: uuid.NewString(), Role: schema.RoleUser, Text: text})
	if err := remote.Check(c.gen); err != nil {
		return schema.ChatMessage{}, err
	}
	reply := schema.ChatMessage{ID: uuid.NewString(), Role: schema.RoleModel}
	out, err := c.gen.GenerateText(ctx, ChatPrompt(text, project), remote.FormatText)
	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) {
			return schema.ChatMessage{}, err
		}
		c.log.Warn("chat reply failed", "err", err)
		reply.Text = TroubleText
	case strings.TrimSpace(out) == "":
		reply.Text = EmptyReplyText
	default:
		reply.Text = out
	}
	c.append(reply)
	return reply, nil
}

func (c *Chat) append(msg schema.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msg)
	c.persistLocked()
}

func (c *Chat) persistLocked() {
	if c.store == nil {
		return
	}
	if err := c.store.Save(HistoryKey, c.history); err != nil {
		c.log.Warn("chat history save failed", "err", err)
	}
}

// ChatPrompt builds the mentor instruction for one user message.
func ChatPrompt(text string, project ProjectContext) string {
	var b strings.Builder
	b.WriteString("Act as a Senior Software Architect and Career Mentor.\n")
	fmt.Fprintf(&b, "Current language context: %s.\n", project.Language)
	fmt.Fprintf(&b, "User message: %q.\n\n", text)
	b.WriteString("Current project files:\n")
	b.WriteString(simulate.ProjectContext(project.Files))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. If the user asks to fix or debug code, provide the solution and explain the fix.\n")
	b.WriteString("2. If the user asks a concept question, ignore the current code and teach the concept with structured Markdown.\n")
	b.WriteString("3. Use **bold** for key terms and ### headers for sections.\n")
	b.WriteString("4. Always tag code blocks with their language.\n")
	b.WriteString("5. Be professional, concise and helpful.\n")
	return b.String()
}

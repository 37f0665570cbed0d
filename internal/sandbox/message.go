package sandbox

import "fmt"

// MessageType is the kind of a worker message.
type MessageType string

const (
	// MessageOutput carries one intercepted console call.
	MessageOutput MessageType = "output"
	// MessageError reports an uncaught error; it is terminal.
	MessageError MessageType = "error"
	// MessageDone reports natural completion; it is terminal.
	MessageDone MessageType = "done"
)

// Message is the plain-data envelope a worker posts to its host.
type Message struct {
	Type    MessageType `json:"type"`
	Level   string      `json:"level,omitempty"`
	Content string      `json:"content,omitempty"`
}

// Terminal reports whether the message ends the run.
func (m Message) Terminal() bool {
	return m.Type == MessageError || m.Type == MessageDone
}

const (
	// DefaultMaxMessages caps console calls per run.
	DefaultMaxMessages = 100
	// DefaultMaxEntryChars caps the characters of a single formatted value.
	DefaultMaxEntryChars = 1024 * 1024
)

// Limits bounds the output a single run may produce.
type Limits struct {
	MaxMessages   int `json:"max_messages"`
	MaxEntryChars int `json:"max_entry_chars"`
}

// DefaultLimits returns the standard output caps.
func DefaultLimits() Limits {
	return Limits{MaxMessages: DefaultMaxMessages, MaxEntryChars: DefaultMaxEntryChars}
}

func (l Limits) normalized() Limits {
	if l.MaxMessages <= 0 {
		l.MaxMessages = DefaultMaxMessages
	}
	if l.MaxEntryChars <= 0 {
		l.MaxEntryChars = DefaultMaxEntryChars
	}
	return l
}

// SuppressionMessage is the single warning emitted once the message cap is hit.
func SuppressionMessage(maxMessages int) string {
	return fmt.Sprintf("Output limit reached (%d messages). Further output suppressed.", maxMessages)
}

// Job is the request a worker process reads from stdin.
type Job struct {
	Source string `json:"source"`
	Limits Limits `json:"limits"`
}

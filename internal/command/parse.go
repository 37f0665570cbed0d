package command

import (
	"fmt"
	"strings"
)

// Command represents a parsed slash command.
type Command struct {
	Name      string
	Args      []string
	Raw       string
	Remainder string
}

// Parse parses a line and returns a Command if it starts with "/".
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}
	raw := strings.TrimSpace(trimmed[1:])
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{Name: "", Raw: raw}, true
	}
	name := strings.ToLower(fields[0])
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	return Command{
		Name:      name,
		Args:      fields[1:],
		Raw:       raw,
		Remainder: remainderAfterTokens(raw, 1),
	}, true
}

// Spec documents one slash command.
type Spec struct {
	Name    string
	Args    string
	Summary string
}

// Usage returns the "usage: /name args" line for the command.
func (s Spec) Usage() string {
	if s.Args == "" {
		return "usage: /" + s.Name
	}
	return "usage: /" + s.Name + " " + s.Args
}

// Specs lists the studio commands in help order.
var Specs = []Spec{
	{Name: "run", Summary: "run the active file"},
	{Name: "stop", Summary: "cancel the running program"},
	{Name: "lang", Args: "<language>", Summary: "switch language (resets the project)"},
	{Name: "files", Summary: "list project files"},
	{Name: "open", Args: "<file>", Summary: "make a file active"},
	{Name: "new", Args: "<file>", Summary: "create an empty file"},
	{Name: "rm", Args: "<file>", Summary: "delete a file"},
	{Name: "write", Args: "[file]", Summary: "replace a file, end input with a single '.'"},
	{Name: "load", Args: "<path> [file]", Summary: "copy a file from disk into the project"},
	{Name: "show", Args: "[file]", Summary: "print a file"},
	{Name: "format", Summary: "format the active file"},
	{Name: "preview", Summary: "print the preview address"},
	{Name: "chat", Args: "<message>", Summary: "ask the mentor"},
	{Name: "history", Summary: "print the chat transcript"},
	{Name: "clear-chat", Summary: "reset the chat transcript"},
	{Name: "presets", Summary: "list quick chat prompts"},
	{Name: "preset", Args: "<number>", Summary: "send a quick chat prompt"},
	{Name: "quiz", Args: "[beginner|intermediate|advanced]", Summary: "start a quiz"},
	{Name: "help", Summary: "show this help"},
	{Name: "quit", Summary: "leave the studio"},
}

var aliases = map[string]string{
	"exit": "quit",
	"q":    "quit",
	"z":    "stop",
	"ls":   "files",
	"cat":  "show",
	"?":    "help",
}

// Lookup returns the spec for name.
func Lookup(name string) (Spec, bool) {
	for _, spec := range Specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

func usageError(name string) error {
	spec, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown command: /%s", name)
	}
	return fmt.Errorf("%s", spec.Usage())
}

func helpLines() []string {
	width := 0
	heads := make([]string, len(Specs))
	for i, spec := range Specs {
		head := "/" + spec.Name
		if spec.Args != "" {
			head += " " + spec.Args
		}
		heads[i] = head
		if len(head) > width {
			width = len(head)
		}
	}
	lines := []string{"Commands"}
	for i, spec := range Specs {
		lines = append(lines, fmt.Sprintf("  %-*s  %s", width, heads[i], spec.Summary))
	}
	lines = append(lines, "Other lines are sent to the interactive shell when the language has one.")
	return lines
}

func remainderAfterTokens(raw string, count int) string {
	i := 0
	remaining := count
	for remaining > 0 && i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		for i < len(raw) && !isSpace(raw[i]) {
			i++
		}
		remaining--
	}
	if i >= len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

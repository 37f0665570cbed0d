package simulate

import (
	"fmt"
	"sort"
	"strings"

	"pkt.systems/codelab/schema"
)

// ProjectContext renders every file as a delimited block, ordered by name.
func ProjectContext(files map[string]string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	blocks := make([]string, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, fmt.Sprintf("--- %s ---\n%s", name, files[name]))
	}
	return strings.Join(blocks, "\n\n")
}

// RunPrompt builds the instruction sent for a full program run.
func RunPrompt(req schema.RunRequest) string {
	switch req.Language {
	case schema.LanguageMongoDB:
		return fmt.Sprintf("Simulate the MongoDB shell. The current database is 'production_db'.\nUser script:\n%s\nReturn the text output only.", req.Source())
	case schema.LanguageNodeJS:
		return fmt.Sprintf("Simulate the Node.js console.\n\nProject files:\n%s\n\nExecute the entry point '%s'.\nIf the file is empty, output nothing.\nOtherwise return its stdout and stderr.\nReturn only the raw output text without markdown blocks.",
			ProjectContext(req.Files), req.ActiveFile)
	default:
		return fmt.Sprintf("Act as a %s compiler.\n\nProject files:\n%s\n\nCompile and run the entry point '%s'.\nReturn only the program output (stdout and stderr) without markdown blocks.",
			req.Language.Label(), ProjectContext(req.Files), req.ActiveFile)
	}
}

// ReplPrompt builds the instruction for one interactive shell line.
func ReplPrompt(lang schema.Language, input string) string {
	if lang == schema.LanguageMongoDB {
		return fmt.Sprintf("MongoDB shell simulator. Input: %q. Known collections: 'products', 'users'. Return the raw text output.", input)
	}
	return fmt.Sprintf("Node.js REPL simulator. Input: %q. Return the raw text result.", input)
}

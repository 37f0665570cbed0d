package schema

import (
	"path"
	"strings"
)

// ParseLanguage normalizes a language selector.
// Accepted aliases: js, jsx, node, mongo, py, c++.
func ParseLanguage(value string) (Language, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "js":
		trimmed = string(LanguageJavaScript)
	case "jsx":
		trimmed = string(LanguageReact)
	case "node", "node.js":
		trimmed = string(LanguageNodeJS)
	case "mongo":
		trimmed = string(LanguageMongoDB)
	case "py":
		trimmed = string(LanguagePython)
	case "c++":
		trimmed = string(LanguageCPP)
	}
	lang := Language(trimmed)
	if !lang.Valid() {
		return "", ErrInvalidLanguage
	}
	return lang, nil
}

// ParseDifficulty normalizes a quiz difficulty. Empty selects intermediate.
func ParseDifficulty(value string) (Difficulty, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "":
		return DifficultyIntermediate, nil
	case string(DifficultyBeginner), string(DifficultyIntermediate), string(DifficultyAdvanced):
		return Difficulty(trimmed), nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// ValidateFilename checks that a project file name is a bare, non-empty name.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) != name || name == "" {
		return ErrInvalidFilename
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return ErrInvalidFilename
	}
	if path.Clean(name) != name {
		return ErrInvalidFilename
	}
	return nil
}

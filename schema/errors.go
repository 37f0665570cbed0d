package schema

import "errors"

var (
	// ErrInvalidLanguage indicates a language outside the supported set.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrInvalidDifficulty indicates an unknown quiz difficulty.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidFilename indicates an empty or malformed project file name.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrInvalidRequest indicates a malformed run request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyPrompt indicates a chat or shell input was empty.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrInvalidQuiz indicates a quiz payload that failed structural checks.
	ErrInvalidQuiz = errors.New("invalid quiz")
)

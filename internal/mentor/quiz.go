package mentor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/remote"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// FallbackQuestion is the single placeholder shown when generation fails.
var FallbackQuestion = schema.QuizQuestion{
	Question:     "Unable to generate quiz. Please check your API key and try again.",
	Options:      []string{"Retry", "Exit", "", ""},
	CorrectIndex: 0,
}

// Fallback returns a fresh copy of the placeholder quiz.
func Fallback() []schema.QuizQuestion {
	q := FallbackQuestion
	q.Options = append([]string(nil), FallbackQuestion.Options...)
	return []schema.QuizQuestion{q}
}

// QuizGenerator asks the remote service for multiple-choice questions.
type QuizGenerator struct {
	gen remote.Generator
	log pslog.Logger
}

// NewQuizGenerator constructs a generator.
func NewQuizGenerator(gen remote.Generator, logger pslog.Logger) *QuizGenerator {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &QuizGenerator{gen: gen, log: logger}
}

// Generate returns questions for lang at difficulty. It always returns at
// least one question: on any failure the placeholder quiz is returned
// together with the cause.
func (g *QuizGenerator) Generate(ctx context.Context, lang schema.Language, difficulty schema.Difficulty) ([]schema.QuizQuestion, error) {
	if err := remote.Check(g.gen); err != nil {
		return Fallback(), &core.ExecError{Kind: core.ErrorServiceUnavailable, Op: "quiz", Message: "remote service credential not configured", Err: err}
	}
	prompt, err := QuizPrompt(lang, difficulty)
	if err != nil {
		return Fallback(), err
	}
	text, err := g.gen.GenerateText(ctx, prompt, remote.FormatJSON)
	if err != nil {
		g.log.Warn("quiz generation failed", "language", lang, "difficulty", difficulty, "err", err)
		return Fallback(), core.NewExecError(core.ErrorServiceUnavailable, "quiz", err)
	}
	questions, err := ParseQuiz(text)
	if err != nil {
		g.log.Warn("quiz response rejected", "language", lang, "difficulty", difficulty, "err", err)
		return Fallback(), err
	}
	g.log.Debug("quiz generated", "language", lang, "difficulty", difficulty, "questions", len(questions))
	return questions, nil
}

// ParseQuiz decodes a JSON array of questions. The array must be non-empty
// and every question must carry four options and an in-range answer.
func ParseQuiz(text string) ([]schema.QuizQuestion, error) {
	var questions []schema.QuizQuestion
	if err := json.Unmarshal([]byte(remote.StripFences(text)), &questions); err != nil {
		return nil, core.NewExecError(core.ErrorMalformedResponse, "quiz", err)
	}
	if len(questions) == 0 {
		return nil, &core.ExecError{Kind: core.ErrorMalformedResponse, Op: "quiz", Message: "quiz response is empty"}
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, core.NewExecError(core.ErrorMalformedResponse, "quiz", fmt.Errorf("question %d: %w", i+1, err))
		}
	}
	return questions, nil
}

var difficultyBriefs = map[schema.Difficulty]string{
	schema.DifficultyBeginner: `You are creating a quiz for %s beginners. Generate 5 diverse multiple-choice questions:
- 2 fundamental concept questions
- 1 basic syntax question with simple code
- 1 best practices question for beginners
- 1 common mistake or debugging question`,
	schema.DifficultyIntermediate: `You are creating interview questions for %s developers with 1-2 years of experience. Generate 5 diverse questions:
- 1 theoretical concept (closures, scope, async patterns, OOP principles)
- 1 code output prediction
- 1 best practices or design pattern question
- 1 debugging scenario
- 1 language feature question (APIs, built-in methods, advanced syntax)`,
	schema.DifficultyAdvanced: `You are creating senior-level interview questions for %s experts. Generate 5 challenging questions:
- 1 architecture or design question (scalability, patterns, trade-offs)
- 1 performance or memory management question
- 1 complex code analysis with edge cases
- 1 deep language internals question
- 1 real-world production scenario`,
}

// QuizPrompt builds the generation instruction for lang and difficulty.
func QuizPrompt(lang schema.Language, difficulty schema.Difficulty) (string, error) {
	brief, ok := difficultyBriefs[difficulty]
	if !ok {
		return "", schema.ErrInvalidDifficulty
	}
	var b strings.Builder
	fmt.Fprintf(&b, brief, lang.Label())
	b.WriteString("\n\nReturn ONLY valid JSON in this exact format:\n")
	fmt.Fprintf(&b, `[
  {
    "question": "Question text here (may include %s code blocks)?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctIndex": 0
  }
]`, lang)
	b.WriteString("\n\nMake the questions diverse, practical and interview-realistic. Not all should be code output questions.")
	return b.String(), nil
}

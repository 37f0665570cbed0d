package mentor

import (
	"errors"

	"pkt.systems/codelab/schema"
)

var (
	// ErrQuizComplete is returned when answering after the last question.
	ErrQuizComplete = errors.New("quiz is complete")
	// ErrInvalidAnswer is returned for an option index out of range.
	ErrInvalidAnswer = errors.New("answer index out of range")
)

// ReviewItem pairs a question with the answer given.
type ReviewItem struct {
	Question schema.QuizQuestion
	Chosen   int
	Correct  bool
}

// QuizSession walks through a list of questions and keeps score.
type QuizSession struct {
	questions []schema.QuizQuestion
	answers   []int
	score     int
}

// NewQuizSession starts a session over questions.
func NewQuizSession(questions []schema.QuizQuestion) *QuizSession {
	return &QuizSession{questions: append([]schema.QuizQuestion(nil), questions...)}
}

// Len returns the number of questions.
func (s *QuizSession) Len() int {
	return len(s.questions)
}

// Index returns the zero-based index of the current question.
func (s *QuizSession) Index() int {
	return len(s.answers)
}

// Current returns the question awaiting an answer.
func (s *QuizSession) Current() (schema.QuizQuestion, bool) {
	if s.Done() {
		return schema.QuizQuestion{}, false
	}
	return s.questions[len(s.answers)], true
}

// Answer records choice for the current question and reports whether it was
// correct.
func (s *QuizSession) Answer(choice int) (bool, error) {
	q, ok := s.Current()
	if !ok {
		return false, ErrQuizComplete
	}
	if choice < 0 || choice >= len(q.Options) {
		return false, ErrInvalidAnswer
	}
	s.answers = append(s.answers, choice)
	correct := choice == q.CorrectIndex
	if correct {
		s.score++
	}
	return correct, nil
}

// Score returns the number of correct answers so far.
func (s *QuizSession) Score() int {
	return s.score
}

// Done reports whether every question has been answered.
func (s *QuizSession) Done() bool {
	return len(s.answers) >= len(s.questions)
}

// Review lists the answered questions in order.
func (s *QuizSession) Review() []ReviewItem {
	items := make([]ReviewItem, 0, len(s.answers))
	for i, choice := range s.answers {
		q := s.questions[i]
		items = append(items, ReviewItem{Question: q, Chosen: choice, Correct: choice == q.CorrectIndex})
	}
	return items
}

package schema

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser is a message typed by the user.
	RoleUser Role = "user"
	// RoleModel is a reply from the mentor.
	RoleModel Role = "model"
	// RoleSystem is an informational message.
	RoleSystem Role = "system"
)

// ChatMessage is one entry of the persisted chat transcript.
type ChatMessage struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Difficulty selects the quiz prompt.
type Difficulty string

const (
	// DifficultyBeginner targets newcomers.
	DifficultyBeginner Difficulty = "beginner"
	// DifficultyIntermediate targets developers with some experience.
	DifficultyIntermediate Difficulty = "intermediate"
	// DifficultyAdvanced targets senior engineers.
	DifficultyAdvanced Difficulty = "advanced"
)

// QuizOptionCount is the number of options every question carries.
const QuizOptionCount = 4

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Validate checks the option count and answer index.
func (q QuizQuestion) Validate() error {
	if q.Question == "" {
		return ErrInvalidQuiz
	}
	if len(q.Options) != QuizOptionCount {
		return ErrInvalidQuiz
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= QuizOptionCount {
		return ErrInvalidQuiz
	}
	return nil
}

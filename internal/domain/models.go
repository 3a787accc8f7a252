package domain

import "fmt"

// Question is a single multiple-choice question. CorrectAnswer must match
// one of Choices exactly; Validate enforces this at catalog-load time.
type Question struct {
	Text          string   `json:"questionText"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizSummary is the lightweight catalog listing used for quiz selection.
type QuizSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	QuestionCount    int    `json:"questionCount"`
}

// QuizDetail is a full quiz document. It is immutable once loaded into a
// session; the active session is its sole owner.
type QuizDetail struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
	Questions        []Question `json:"questions"`
}

// Summary derives the catalog listing view of the quiz.
func (q QuizDetail) Summary() QuizSummary {
	return QuizSummary{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		TimeLimitMinutes: q.TimeLimitMinutes,
		QuestionCount:    len(q.Questions),
	}
}

// Validate checks the authoring-side invariants before a quiz may enter the
// catalog or a session: at least one question, a positive time limit,
// non-empty choice lists, and a correct answer present among the choices.
func (q QuizDetail) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrMalformedQuiz)
	}
	if q.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", ErrMalformedQuiz, q.TimeLimitMinutes)
	}
	for i, question := range q.Questions {
		if len(question.Choices) == 0 {
			return fmt.Errorf("%w: question %d has no choices", ErrMalformedQuiz, i)
		}
		found := false
		for _, choice := range question.Choices {
			if choice == question.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: question %d correct answer not among choices", ErrMalformedQuiz, i)
		}
	}
	return nil
}

// ScoredAnswer is the per-question outcome of a submitted attempt. A nil
// UserAnswer means the question was left unanswered; it is never correct.
type ScoredAnswer struct {
	QuestionText  string  `json:"questionText"`
	CorrectAnswer string  `json:"correctAnswer"`
	UserAnswer    *string `json:"userAnswer"`
	IsCorrect     bool    `json:"isCorrect"`
}

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "inProgress"
	PhaseScored     Phase = "scored"
)

// Snapshot is the read-only view of a session handed to presentation
// layers. Results is nil until the attempt has been scored; Correct and
// Total are derived from Results rather than stored on the session.
type Snapshot struct {
	Phase            Phase          `json:"phase"`
	Quiz             *QuizDetail    `json:"quiz,omitempty"`
	CurrentIndex     int            `json:"currentIndex"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Answers          []*string      `json:"answers,omitempty"`
	Results          []ScoredAnswer `json:"results,omitempty"`
	Correct          int            `json:"correct"`
	Total            int            `json:"total"`
}

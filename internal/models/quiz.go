package models

import "time"

// QuizChoice identifies one of the four answer options.
type QuizChoice string

const (
	ChoiceA QuizChoice = "A"
	ChoiceB QuizChoice = "B"
	ChoiceC QuizChoice = "C"
	ChoiceD QuizChoice = "D"
)

// Valid reports whether the choice is one of A-D.
func (c QuizChoice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	default:
		return false
	}
}

// Quiz represents a multiple-choice quiz authored by a teacher.
type Quiz struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	AuthorName string    `db:"author_name" json:"author_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Questions []QuizQuestion `json:"questions,omitempty"`
}

// QuizQuestion stores a prompt, four choices, and the answer key.
type QuizQuestion struct {
	ID       string     `db:"id" json:"id"`
	QuizID   string     `db:"quiz_id" json:"quiz_id"`
	Position int        `db:"position" json:"position"`
	Prompt   string     `db:"prompt" json:"prompt"`
	ChoiceA  string     `db:"choice_a" json:"choice_a"`
	ChoiceB  string     `db:"choice_b" json:"choice_b"`
	ChoiceC  string     `db:"choice_c" json:"choice_c"`
	ChoiceD  string     `db:"choice_d" json:"choice_d"`
	Correct  QuizChoice `db:"correct" json:"correct"`
}

// QuizQuestionView is the student-facing projection without the answer key.
type QuizQuestionView struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Prompt   string `json:"prompt"`
	ChoiceA  string `json:"choice_a"`
	ChoiceB  string `json:"choice_b"`
	ChoiceC  string `json:"choice_c"`
	ChoiceD  string `json:"choice_d"`
}

// View strips the answer key from a question.
func (q QuizQuestion) View() QuizQuestionView {
	return QuizQuestionView{
		ID:       q.ID,
		Position: q.Position,
		Prompt:   q.Prompt,
		ChoiceA:  q.ChoiceA,
		ChoiceB:  q.ChoiceB,
		ChoiceC:  q.ChoiceC,
		ChoiceD:  q.ChoiceD,
	}
}

// QuizAttempt is a student's single scored pass over a quiz. The score is a
// percentage computed once at submission time and never changes.
type QuizAttempt struct {
	ID          string    `db:"id" json:"id"`
	QuizID      string    `db:"quiz_id" json:"quiz_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	Score       float64   `db:"score" json:"score"`
	StudentName string    `db:"student_name" json:"student_name,omitempty"`

	Answers []QuizAnswer `json:"answers,omitempty"`
}

// QuizAnswer records a student's pick for one question. Answer is nil when
// the question was left blank.
type QuizAnswer struct {
	ID         string      `db:"id" json:"id"`
	AttemptID  string      `db:"attempt_id" json:"attempt_id"`
	QuestionID string      `db:"question_id" json:"question_id"`
	Answer     *QuizChoice `db:"answer" json:"answer,omitempty"`
}

// QuizFilter scopes quiz listings.
type QuizFilter struct {
	Page     int
	PageSize int
}

// QuizDetail aggregates role-scoped quiz data: students get the sanitized
// questions and their own attempt, the owning teacher gets the key and all
// attempts.
type QuizDetail struct {
	Quiz      Quiz               `json:"quiz"`
	Questions []QuizQuestionView `json:"questions,omitempty"`
	Attempt   *QuizAttempt       `json:"attempt,omitempty"`
	Key       []QuizQuestion     `json:"key,omitempty"`
	Attempts  []QuizAttempt      `json:"attempts,omitempty"`
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classhub-api/internal/models"
)

func TestCreateQuizWithQuestions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO quizzes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	quiz := &models.Quiz{
		Title:     "Orientation",
		CreatedBy: "t1",
		Questions: []models.QuizQuestion{
			{Prompt: "First?", ChoiceA: "a", ChoiceB: "b", ChoiceC: "c", ChoiceD: "d", Correct: models.ChoiceA},
			{Prompt: "Second?", ChoiceA: "a", ChoiceB: "b", ChoiceC: "c", ChoiceD: "d", Correct: models.ChoiceB},
		},
	}
	require.NoError(t, repo.Create(context.Background(), quiz))
	assert.NotEmpty(t, quiz.ID)
	assert.Equal(t, 1, quiz.Questions[0].Position)
	assert.Equal(t, 2, quiz.Questions[1].Position)
	assert.Equal(t, quiz.ID, quiz.Questions[1].QuizID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttemptDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO quiz_attempts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "quiz_attempts_quiz_id_student_id_key"})
	mock.ExpectRollback()

	err := repo.CreateAttempt(context.Background(), &models.QuizAttempt{QuizID: "q1", StudentID: "s1", Score: 100})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttemptWithAnswers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO quiz_attempts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO quiz_answers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pick := models.ChoiceC
	attempt := &models.QuizAttempt{
		QuizID:    "q1",
		StudentID: "s1",
		Score:     66.67,
		Answers:   []models.QuizAnswer{{QuestionID: "qq1", Answer: &pick}},
	}
	require.NoError(t, repo.CreateAttempt(context.Background(), attempt))
	assert.Equal(t, attempt.ID, attempt.Answers[0].AttemptID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	rows := sqlmock.NewRows([]string{"id", "quiz_id", "position", "prompt", "choice_a", "choice_b", "choice_c", "choice_d", "correct"}).
		AddRow("qq1", "q1", 1, "First?", "a", "b", "c", "d", "A").
		AddRow("qq2", "q1", 2, "Second?", "a", "b", "c", "d", "D")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, quiz_id, position, prompt, choice_a, choice_b, choice_c, choice_d, correct")).
		WithArgs("q1").
		WillReturnRows(rows)

	questions, err := repo.ListQuestions(context.Background(), "q1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, models.ChoiceD, questions[1].Correct)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAttempt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	rows := sqlmock.NewRows([]string{"id", "quiz_id", "student_id", "submitted_at", "score", "student_name"}).
		AddRow("at1", "q1", "s1", time.Now(), 75.0, "")
	mock.ExpectQuery("SELECT id, quiz_id, student_id, submitted_at, score").
		WithArgs("q1", "s1").
		WillReturnRows(rows)

	attempt, err := repo.GetAttempt(context.Background(), "q1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 75.0, attempt.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

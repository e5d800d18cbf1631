package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classhub-api/internal/models"
)

func TestListAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "due_date", "created_by", "created_at", "author_name"}).
		AddRow("a1", "Essay", "Write an essay", nil, "t1", now, "Teacher")
	mock.ExpectQuery("SELECT a.id, a.title, a.description, a.due_date, a.created_by, a.created_at").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Teacher", assignments[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{AssignmentID: "a1", StudentID: "s1", Content: "my answer"}
	require.NoError(t, repo.UpsertSubmission(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	feedback := "good work"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET score = $2, feedback = $3 WHERE id = $1")).
		WithArgs("sub-1", 92.5, &feedback).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.GradeSubmission(context.Background(), "sub-1", 92.5, &feedback))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvgScoreByStudentNoGrades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(score) FROM submissions WHERE student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.AvgScoreByStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUngradedByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions s")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountUngradedByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/pkg/storage"
)

type fakeGradebook struct {
	rows []models.Submission
}

func (f fakeGradebook) GradebookRows(ctx context.Context, teacherID string) ([]models.Submission, error) {
	return f.rows, nil
}

type fakeQuizResults struct {
	quiz     *models.Quiz
	attempts []models.QuizAttempt
}

func (f fakeQuizResults) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	return f.quiz, nil
}

func (f fakeQuizResults) ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error) {
	return f.attempts, nil
}

func newTestExportService(t *testing.T, gradebook gradebookProvider, quizzes quizResultsProvider) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(gradebook, quizzes, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
}

func TestExportServiceGenerateGradebookCSV(t *testing.T) {
	score := 92.5
	feedback := "well done"
	svc := newTestExportService(t, fakeGradebook{rows: []models.Submission{
		{AssignmentID: "a1", StudentName: "Ada", SubmittedAt: time.Now(), Score: &score, Feedback: &feedback},
		{AssignmentID: "a1", StudentName: "Bob", SubmittedAt: time.Now()},
	}}, fakeQuizResults{})

	job := &models.ExportJob{
		ID:        "job-1",
		Type:      models.ExportTypeGradebook,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		CreatedBy: "t1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Ada")
	assert.Contains(t, content, "92.50")
	assert.Contains(t, content, "well done")
}

func TestExportServiceGenerateQuizResultsPDF(t *testing.T) {
	svc := newTestExportService(t, fakeGradebook{}, fakeQuizResults{
		quiz: &models.Quiz{ID: "q1", Title: "Orientation quiz"},
		attempts: []models.QuizAttempt{
			{StudentName: "Ada", SubmittedAt: time.Now(), Score: 100},
		},
	})

	quizID := "q1"
	job := &models.ExportJob{
		ID:        "job-2",
		Type:      models.ExportTypeQuizResults,
		Params:    models.ExportJobParams{QuizID: &quizID, Format: models.ExportFormatPDF},
		CreatedBy: "t1",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-2", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(t, fakeGradebook{}, fakeQuizResults{})

	job := &models.ExportJob{
		ID:     "job-3",
		Type:   models.ExportTypeGradebook,
		Params: models.ExportJobParams{Format: "XLSX"},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

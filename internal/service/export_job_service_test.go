package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
	"github.com/noah-isme/classhub-api/pkg/jobs"
)

type mockExportJobStore struct {
	jobs map[string]*models.ExportJob
}

func newMockExportJobStore() *mockExportJobStore {
	return &mockExportJobStore{jobs: make(map[string]*models.ExportJob)}
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (m *mockExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	out := make([]models.ExportJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockExportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type staticGenerator struct {
	result *ExportResult
	err    error
}

func (g staticGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	return g.result, g.err
}

func TestExportJobServiceCreateGradebookJob(t *testing.T) {
	store := newMockExportJobStore()
	dispatcher := &mockDispatcher{}
	svc := NewExportJobService(store, newMockQuizRepo(), dispatcher, nil, zap.NewNop(), ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), ExportRequest{
		Type:   models.ExportTypeGradebook,
		Format: models.ExportFormatCSV,
	}, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, resp.ID, dispatcher.enqueued[0].ID)
}

func TestExportJobServiceQuizExportRequiresOwner(t *testing.T) {
	store := newMockExportJobStore()
	quizzes := newMockQuizRepo()
	quizzes.quizzes["q1"] = &models.Quiz{ID: "q1", Title: "Quiz", CreatedBy: "t1"}
	svc := NewExportJobService(store, quizzes, &mockDispatcher{}, nil, zap.NewNop(), ExportJobServiceConfig{})

	quizID := "q1"
	_, err := svc.CreateJob(context.Background(), ExportRequest{
		Type:   models.ExportTypeQuizResults,
		Format: models.ExportFormatPDF,
		QuizID: &quizID,
	}, "t2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceGetStatusEnforcesOwnership(t *testing.T) {
	store := newMockExportJobStore()
	job := &models.ExportJob{Type: models.ExportTypeGradebook, Status: models.ExportStatusQueued, CreatedBy: "t1"}
	require.NoError(t, store.Create(context.Background(), job))
	svc := NewExportJobService(store, newMockQuizRepo(), &mockDispatcher{}, nil, zap.NewNop(), ExportJobServiceConfig{})

	_, err := svc.GetStatus(context.Background(), job.ID, "t2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	status, err := svc.GetStatus(context.Background(), job.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, status.Status)
}

func TestExportWorkerMarksJobFinished(t *testing.T) {
	store := newMockExportJobStore()
	job := &models.ExportJob{
		Type:      models.ExportTypeGradebook,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "t1",
	}
	require.NoError(t, store.Create(context.Background(), job))

	worker := NewExportWorker(store, staticGenerator{result: &ExportResult{URL: "/api/v1/exports/token"}}, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/exports/token", *job.ResultURL)
}

func TestExportWorkerRequeuesOnFailure(t *testing.T) {
	store := newMockExportJobStore()
	job := &models.ExportJob{
		Type:      models.ExportTypeGradebook,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "t1",
	}
	require.NoError(t, store.Create(context.Background(), job))

	worker := NewExportWorker(store, staticGenerator{err: errors.New("render failed")}, 3, zap.NewNop())
	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 3})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
}

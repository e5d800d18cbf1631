package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[string]*models.Assignment
	submissions map[string]*models.Submission
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{
		assignments: make(map[string]*models.Assignment),
		submissions: make(map[string]*models.Submission),
	}
}

func (m *mockAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	out := make([]models.Assignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAssignmentRepo) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *mockAssignmentRepo) UpsertSubmission(ctx context.Context, sub *models.Submission) error {
	key := sub.AssignmentID + "/" + sub.StudentID
	if existing, ok := m.submissions[key]; ok {
		existing.Content = sub.Content
		existing.SubmittedAt = sub.SubmittedAt
		*sub = *existing
		return nil
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	copied := *sub
	m.submissions[key] = &copied
	return nil
}

func (m *mockAssignmentRepo) GetSubmission(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	sub, ok := m.submissions[assignmentID+"/"+studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (m *mockAssignmentRepo) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	for _, sub := range m.submissions {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, sub := range m.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) GradeSubmission(ctx context.Context, id string, score float64, feedback *string) error {
	for _, sub := range m.submissions {
		if sub.ID == id {
			sub.Score = &score
			sub.Feedback = feedback
		}
	}
	return nil
}

func newTestAssignmentService(repo *mockAssignmentRepo) *AssignmentService {
	return NewAssignmentService(repo, validator.New(), zap.NewNop())
}

func TestAssignmentServiceResubmissionKeepsGrade(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestAssignmentService(repo)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{Title: "Essay", CreatedBy: "t1"})
	require.NoError(t, err)

	first, err := svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "draft one", StudentID: "s1"})
	require.NoError(t, err)

	feedback := "solid"
	_, err = svc.Grade(context.Background(), first.ID, GradeSubmissionRequest{Score: 88, Feedback: &feedback, GraderID: "t1"})
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "draft two", StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "draft two", second.Content)
	require.NotNil(t, second.Score)
	assert.Equal(t, 88.0, *second.Score)
}

func TestAssignmentServiceGradeRequiresOwner(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestAssignmentService(repo)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{Title: "Lab", CreatedBy: "t1"})
	require.NoError(t, err)

	sub, err := svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "results", StudentID: "s1"})
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), sub.ID, GradeSubmissionRequest{Score: 50, GraderID: "t2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Nil(t, sub.Score)
}

func TestAssignmentServiceGradeValidatesRange(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestAssignmentService(repo)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{Title: "Lab", CreatedBy: "t1"})
	require.NoError(t, err)
	sub, err := svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "x", StudentID: "s1"})
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), sub.ID, GradeSubmissionRequest{Score: 150, GraderID: "t1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceGetScopesByRole(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestAssignmentService(repo)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{Title: "Essay", CreatedBy: "t1"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "a", StudentID: "s1"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), assignment.ID, SubmitAssignmentRequest{Content: "b", StudentID: "s2"})
	require.NoError(t, err)

	teacherView, err := svc.Get(context.Background(), assignment.ID, "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, teacherView.Submissions, 2)
	assert.Nil(t, teacherView.Submission)

	studentView, err := svc.Get(context.Background(), assignment.ID, "s1", models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, studentView.Submission)
	assert.Equal(t, "a", studentView.Submission.Content)
	assert.Empty(t, studentView.Submissions)
}

func TestAssignmentServiceSubmitUnknownAssignment(t *testing.T) {
	repo := newMockAssignmentRepo()
	svc := newTestAssignmentService(repo)

	_, err := svc.Submit(context.Background(), "missing", SubmitAssignmentRequest{Content: "x", StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

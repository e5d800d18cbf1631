package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
)

type seedContentStore struct {
	announcements []models.Announcement
	assignments   []models.Assignment
	discussions   []models.Discussion
	quizzes       []models.Quiz
}

type seedAnnouncements struct{ store *seedContentStore }

func (s seedAnnouncements) Count(ctx context.Context) (int, error) {
	return len(s.store.announcements), nil
}

func (s seedAnnouncements) Create(ctx context.Context, ann *models.Announcement) error {
	s.store.announcements = append(s.store.announcements, *ann)
	return nil
}

type seedAssignments struct{ store *seedContentStore }

func (s seedAssignments) Count(ctx context.Context) (int, error) {
	return len(s.store.assignments), nil
}

func (s seedAssignments) Create(ctx context.Context, assignment *models.Assignment) error {
	s.store.assignments = append(s.store.assignments, *assignment)
	return nil
}

type seedDiscussions struct{ store *seedContentStore }

func (s seedDiscussions) Count(ctx context.Context) (int, error) {
	return len(s.store.discussions), nil
}

func (s seedDiscussions) Create(ctx context.Context, discussion *models.Discussion) error {
	s.store.discussions = append(s.store.discussions, *discussion)
	return nil
}

type seedQuizzes struct{ store *seedContentStore }

func (s seedQuizzes) Count(ctx context.Context) (int, error) {
	return len(s.store.quizzes), nil
}

func (s seedQuizzes) Create(ctx context.Context, quiz *models.Quiz) error {
	s.store.quizzes = append(s.store.quizzes, *quiz)
	return nil
}

func TestSeedServiceRunIsIdempotent(t *testing.T) {
	users := newMockAuthRepo()
	content := &seedContentStore{}
	svc := NewSeedService(
		users,
		seedAnnouncements{content},
		seedAssignments{content},
		seedDiscussions{content},
		seedQuizzes{content},
		zap.NewNop(),
		SeedConfig{},
	)

	require.NoError(t, svc.Run(context.Background()))
	require.NoError(t, svc.Run(context.Background()))

	assert.Len(t, users.usersByEmail, 2)
	assert.Len(t, content.announcements, 1)
	assert.Len(t, content.assignments, 1)
	assert.Len(t, content.discussions, 1)
	assert.Len(t, content.quizzes, 1)
}

func TestSeedServiceDemoAccounts(t *testing.T) {
	users := newMockAuthRepo()
	content := &seedContentStore{}
	svc := NewSeedService(
		users,
		seedAnnouncements{content},
		seedAssignments{content},
		seedDiscussions{content},
		seedQuizzes{content},
		zap.NewNop(),
		SeedConfig{},
	)

	require.NoError(t, svc.Run(context.Background()))

	teacher, ok := users.usersByEmail["teacher@classhub.local"]
	require.True(t, ok)
	assert.Equal(t, models.RoleTeacher, teacher.Role)

	student, ok := users.usersByEmail["student@classhub.local"]
	require.True(t, ok)
	assert.Equal(t, models.RoleStudent, student.Role)

	require.Len(t, content.quizzes, 1)
	assert.Len(t, content.quizzes[0].Questions, 3)
	assert.Equal(t, teacher.ID, content.quizzes[0].CreatedBy)
}

func TestSeedServiceStarterContent(t *testing.T) {
	users := newMockAuthRepo()
	content := &seedContentStore{}
	svc := NewSeedService(
		users,
		seedAnnouncements{content},
		seedAssignments{content},
		seedDiscussions{content},
		seedQuizzes{content},
		zap.NewNop(),
		SeedConfig{},
	)

	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, content.announcements, 1)
	assert.Equal(t, "Welcome to ClassHub", content.announcements[0].Title)

	require.Len(t, content.assignments, 1)
	assignment := content.assignments[0]
	assert.Equal(t, "Sample Assignment", assignment.Title)
	require.NotNil(t, assignment.DueDate)
	assert.InDelta(t, 7*24*time.Hour, time.Until(*assignment.DueDate), float64(time.Minute))

	require.Len(t, content.discussions, 1)
	assert.Equal(t, "Introduce yourself", content.discussions[0].Topic)

	require.Len(t, content.quizzes, 1)
	quiz := content.quizzes[0]
	assert.Equal(t, "Orientation Quiz", quiz.Title)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, models.ChoiceB, quiz.Questions[0].Correct)
	assert.Equal(t, models.ChoiceC, quiz.Questions[1].Correct)
	assert.Equal(t, models.ChoiceA, quiz.Questions[2].Correct)
}

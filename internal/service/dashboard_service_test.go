package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type staticCounter int

func (c staticCounter) Count(ctx context.Context) (int, error) {
	return int(c), nil
}

type fakeSubmissionStats struct {
	avg      *float64
	ungraded int
}

func (f fakeSubmissionStats) AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error) {
	return f.avg, nil
}

func (f fakeSubmissionStats) CountUngradedByTeacher(ctx context.Context, teacherID string) (int, error) {
	return f.ungraded, nil
}

type fakeQuizStats struct {
	avg *float64
}

func (f fakeQuizStats) AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error) {
	return f.avg, nil
}

func TestDashboardServiceTeacherSummary(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(2),
		Assignments:   staticCounter(3),
		Discussions:   staticCounter(1),
		Quizzes:       staticCounter(4),
		Submissions:   fakeSubmissionStats{ungraded: 5},
		QuizStats:     fakeQuizStats{},
		Logger:        zap.NewNop(),
	})

	summary, cached, err := svc.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, models.ContentCounts{Announcements: 2, Assignments: 3, Discussions: 1, Quizzes: 4}, summary.Counts)
	require.NotNil(t, summary.PendingGrading)
	assert.Equal(t, 5, *summary.PendingGrading)
	assert.Nil(t, summary.AvgSubmission)
}

func TestDashboardServiceStudentSummary(t *testing.T) {
	avgSub := 81.5
	avgQuiz := 66.67
	svc := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(1),
		Assignments:   staticCounter(1),
		Discussions:   staticCounter(1),
		Quizzes:       staticCounter(1),
		Submissions:   fakeSubmissionStats{avg: &avgSub},
		QuizStats:     fakeQuizStats{avg: &avgQuiz},
		Logger:        zap.NewNop(),
	})

	summary, _, err := svc.Summary(context.Background(), "s1", models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, summary.AvgSubmission)
	assert.Equal(t, 81.5, *summary.AvgSubmission)
	require.NotNil(t, summary.AvgQuizScore)
	assert.InDelta(t, 66.67, *summary.AvgQuizScore, 0.001)
	assert.Nil(t, summary.PendingGrading)
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestDashboardServiceSecondReadHitsCache(t *testing.T) {
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(1),
		Assignments:   staticCounter(2),
		Discussions:   staticCounter(3),
		Quizzes:       staticCounter(4),
		Submissions:   fakeSubmissionStats{ungraded: 7},
		QuizStats:     fakeQuizStats{},
		Cache:         cache,
		Logger:        zap.NewNop(),
	})

	first, cached, err := svc.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := svc.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.Counts, second.Counts)
	require.NotNil(t, second.PendingGrading)
	assert.Equal(t, 7, *second.PendingGrading)

	svc.Invalidate(context.Background())
	_, cached, err = svc.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDashboardServiceRecordsQueryTimings(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(1),
		Assignments:   staticCounter(1),
		Discussions:   staticCounter(1),
		Quizzes:       staticCounter(1),
		Submissions:   fakeSubmissionStats{ungraded: 2},
		QuizStats:     fakeQuizStats{},
		Metrics:       metrics,
		Logger:        zap.NewNop(),
	})

	_, _, err := svc.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.Snapshot().DBQueryCount)

	_, _, err = svc.Summary(context.Background(), "s1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), metrics.Snapshot().DBQueryCount)
}

type noopAnnouncementRepo struct{}

func (noopAnnouncementRepo) List(_ context.Context, _ models.AnnouncementFilter) ([]models.Announcement, int, error) {
	return nil, 0, nil
}

func (noopAnnouncementRepo) GetByID(_ context.Context, _ string) (*models.Announcement, error) {
	return nil, nil
}

func (noopAnnouncementRepo) Create(_ context.Context, _ *models.Announcement) error {
	return nil
}

func TestContentWriteDropsCachedDashboards(t *testing.T) {
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	dashboards := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(1),
		Assignments:   staticCounter(1),
		Discussions:   staticCounter(1),
		Quizzes:       staticCounter(1),
		Submissions:   fakeSubmissionStats{},
		QuizStats:     fakeQuizStats{},
		Cache:         cache,
		Logger:        zap.NewNop(),
	})

	_, _, err := dashboards.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	_, cached, err := dashboards.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	require.True(t, cached)

	announcements := NewAnnouncementService(noopAnnouncementRepo{}, nil, zap.NewNop())
	announcements.SetDashboardInvalidator(dashboards)
	_, err = announcements.Create(context.Background(), CreateAnnouncementRequest{
		Title:     "Exam week",
		Body:      "Room 4 on Monday",
		CreatedBy: "t1",
	})
	require.NoError(t, err)

	_, cached, err = dashboards.Summary(context.Background(), "t1", models.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDashboardServiceRejectsMissingUser(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{
		Announcements: staticCounter(0),
		Assignments:   staticCounter(0),
		Discussions:   staticCounter(0),
		Quizzes:       staticCounter(0),
		Submissions:   fakeSubmissionStats{},
		QuizStats:     fakeQuizStats{},
	})

	_, _, err := svc.Summary(context.Background(), "", models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

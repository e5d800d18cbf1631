package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
)

type contentCounter interface {
	Count(ctx context.Context) (int, error)
}

type submissionStatsProvider interface {
	AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error)
	CountUngradedByTeacher(ctx context.Context, teacherID string) (int, error)
}

type quizStatsProvider interface {
	AvgScoreByStudent(ctx context.Context, studentID string) (*float64, error)
}

// DashboardInvalidator drops cached dashboard summaries. Content services
// call it after writes so viewers never see stale counts for a full TTL.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Announcements contentCounter
	Assignments   contentCounter
	Discussions   contentCounter
	Quizzes       contentCounter
	Submissions   submissionStatsProvider
	QuizStats     quizStatsProvider
	Cache         *CacheService
	Metrics       *MetricsService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes role-scoped landing page summaries.
type DashboardService struct {
	announcements contentCounter
	assignments   contentCounter
	discussions   contentCounter
	quizzes       contentCounter
	submissions   submissionStatsProvider
	quizStats     quizStatsProvider
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		announcements: params.Announcements,
		assignments:   params.Assignments,
		discussions:   params.Discussions,
		quizzes:       params.Quizzes,
		submissions:   params.Submissions,
		quizStats:     params.QuizStats,
		cache:         params.Cache,
		metrics:       params.Metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

// Summary returns the viewer's dashboard and indicates cache utilisation.
// Teachers see pending grading load, students see their running averages.
func (s *DashboardService) Summary(ctx context.Context, userID string, role models.UserRole) (*models.DashboardSummary, bool, error) {
	if userID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	if !role.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	cacheKey := fmt.Sprintf("dash:%s:%s", role, userID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	counts, err := s.collectCounts(ctx)
	s.metrics.ObserveDBQuery("dashboard_counts", time.Since(start))
	if err != nil {
		return nil, false, err
	}

	summary := &models.DashboardSummary{Role: role, Counts: counts}

	switch role {
	case models.RoleTeacher:
		start = time.Now()
		pending, err := s.submissions.CountUngradedByTeacher(ctx, userID)
		s.metrics.ObserveDBQuery("dashboard_pending_grading", time.Since(start))
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending grading")
		}
		summary.PendingGrading = &pending
	case models.RoleStudent:
		start = time.Now()
		avgSub, err := s.submissions.AvgScoreByStudent(ctx, userID)
		s.metrics.ObserveDBQuery("dashboard_avg_submission", time.Since(start))
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average submission scores")
		}
		summary.AvgSubmission = avgSub

		start = time.Now()
		avgQuiz, err := s.quizStats.AvgScoreByStudent(ctx, userID)
		s.metrics.ObserveDBQuery("dashboard_avg_quiz", time.Since(start))
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average quiz scores")
		}
		summary.AvgQuizScore = avgQuiz
	}

	if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache store failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return summary, false, nil
}

// Invalidate drops every cached dashboard. Called after content writes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) collectCounts(ctx context.Context) (models.ContentCounts, error) {
	var counts models.ContentCounts
	var err error

	if counts.Announcements, err = s.announcements.Count(ctx); err != nil {
		return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count announcements")
	}
	if counts.Assignments, err = s.assignments.Count(ctx); err != nil {
		return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	if counts.Discussions, err = s.discussions.Count(ctx); err != nil {
		return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count discussions")
	}
	if counts.Quizzes, err = s.quizzes.Count(ctx); err != nil {
		return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count quizzes")
	}
	return counts, nil
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/service"
)

type fixedCounter int

func (f fixedCounter) Count(context.Context) (int, error) { return int(f), nil }

type fixedSubmissionStats struct {
	avg      *float64
	ungraded int
}

func (f fixedSubmissionStats) AvgScoreByStudent(context.Context, string) (*float64, error) {
	return f.avg, nil
}

func (f fixedSubmissionStats) CountUngradedByTeacher(context.Context, string) (int, error) {
	return f.ungraded, nil
}

type fixedQuizStats struct {
	avg *float64
}

func (f fixedQuizStats) AvgScoreByStudent(context.Context, string) (*float64, error) {
	return f.avg, nil
}

func newDashboardHandler(stats fixedSubmissionStats, quizStats fixedQuizStats) *DashboardHandler {
	svc := service.NewDashboardService(service.DashboardServiceParams{
		Announcements: fixedCounter(2),
		Assignments:   fixedCounter(3),
		Discussions:   fixedCounter(1),
		Quizzes:       fixedCounter(4),
		Submissions:   stats,
		QuizStats:     quizStats,
	})
	return NewDashboardHandler(svc)
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler(fixedSubmissionStats{}, fixedQuizStats{})

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardHandlerTeacherSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler(fixedSubmissionStats{ungraded: 5}, fixedQuizStats{})

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.DashboardSummary `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.RoleTeacher, envelope.Data.Role)
	require.NotNil(t, envelope.Data.PendingGrading)
	assert.Equal(t, 5, *envelope.Data.PendingGrading)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerStudentSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	avgSub := 81.5
	avgQuiz := 66.67
	handler := newDashboardHandler(fixedSubmissionStats{avg: &avgSub}, fixedQuizStats{avg: &avgQuiz})

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.DashboardSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.AvgSubmission)
	assert.InDelta(t, 81.5, *envelope.Data.AvgSubmission, 0.001)
	require.NotNil(t, envelope.Data.AvgQuizScore)
	assert.InDelta(t, 66.67, *envelope.Data.AvgQuizScore, 0.001)
	assert.Nil(t, envelope.Data.PendingGrading)
}

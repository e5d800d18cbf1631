package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/classhub-api/internal/models"
)

type seedUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type seedAnnouncementStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, ann *models.Announcement) error
}

type seedAssignmentStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, assignment *models.Assignment) error
}

type seedDiscussionStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, discussion *models.Discussion) error
}

type seedQuizStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, quiz *models.Quiz) error
}

// SeedConfig names the demo accounts created on first boot.
type SeedConfig struct {
	TeacherEmail string
	StudentEmail string
	DemoPassword string
}

// SeedService provisions demo accounts and starter content. Every step
// checks for existing data first, so running it on every boot is safe.
type SeedService struct {
	users         seedUserStore
	announcements seedAnnouncementStore
	assignments   seedAssignmentStore
	discussions   seedDiscussionStore
	quizzes       seedQuizStore
	logger        *zap.Logger
	cfg           SeedConfig
}

// NewSeedService constructs the seeder.
func NewSeedService(users seedUserStore, announcements seedAnnouncementStore, assignments seedAssignmentStore, discussions seedDiscussionStore, quizzes seedQuizStore, logger *zap.Logger, cfg SeedConfig) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TeacherEmail == "" {
		cfg.TeacherEmail = "teacher@classhub.local"
	}
	if cfg.StudentEmail == "" {
		cfg.StudentEmail = "student@classhub.local"
	}
	if cfg.DemoPassword == "" {
		cfg.DemoPassword = "password123"
	}
	return &SeedService{
		users:         users,
		announcements: announcements,
		assignments:   assignments,
		discussions:   discussions,
		quizzes:       quizzes,
		logger:        logger,
		cfg:           cfg,
	}
}

// Run seeds the demo teacher, student, and starter content.
func (s *SeedService) Run(ctx context.Context) error {
	teacher, err := s.ensureUser(ctx, s.cfg.TeacherEmail, "Teacher Demo", models.RoleTeacher)
	if err != nil {
		return err
	}
	if _, err := s.ensureUser(ctx, s.cfg.StudentEmail, "Student Demo", models.RoleStudent); err != nil {
		return err
	}

	if err := s.seedAnnouncement(ctx, teacher.ID); err != nil {
		return err
	}
	if err := s.seedAssignment(ctx, teacher.ID); err != nil {
		return err
	}
	if err := s.seedDiscussion(ctx, teacher.ID); err != nil {
		return err
	}
	if err := s.seedQuiz(ctx, teacher.ID); err != nil {
		return err
	}

	s.logger.Info("demo data seeded",
		zap.String("teacher_email", s.cfg.TeacherEmail),
		zap.String("student_email", s.cfg.StudentEmail))
	return nil
}

func (s *SeedService) ensureUser(ctx context.Context, email, fullName string, role models.UserRole) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *SeedService) seedAnnouncement(ctx context.Context, teacherID string) error {
	count, err := s.announcements.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	return s.announcements.Create(ctx, &models.Announcement{
		Title:     "Welcome to ClassHub",
		Body:      "Explore assignments, discussions, and quizzes.",
		CreatedBy: teacherID,
	})
}

func (s *SeedService) seedAssignment(ctx context.Context, teacherID string) error {
	count, err := s.assignments.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	due := time.Now().UTC().AddDate(0, 0, 7)
	return s.assignments.Create(ctx, &models.Assignment{
		Title:       "Sample Assignment",
		Description: "Submit a paragraph or a link.",
		DueDate:     &due,
		CreatedBy:   teacherID,
	})
}

func (s *SeedService) seedDiscussion(ctx context.Context, teacherID string) error {
	count, err := s.discussions.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	return s.discussions.Create(ctx, &models.Discussion{
		Topic:     "Introduce yourself",
		CreatedBy: teacherID,
	})
}

func (s *SeedService) seedQuiz(ctx context.Context, teacherID string) error {
	count, err := s.quizzes.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	return s.quizzes.Create(ctx, &models.Quiz{
		Title:     "Orientation Quiz",
		CreatedBy: teacherID,
		Questions: []models.QuizQuestion{
			{
				Prompt:  "ClassHub is?",
				ChoiceA: "Bank",
				ChoiceB: "Course hub",
				ChoiceC: "Game",
				ChoiceD: "Shop",
				Correct: models.ChoiceB,
			},
			{
				Prompt:  "Who posts assignments?",
				ChoiceA: "Parents",
				ChoiceB: "Students",
				ChoiceC: "Teachers",
				ChoiceD: "Guests",
				Correct: models.ChoiceC,
			},
			{
				Prompt:  "Theme colors are?",
				ChoiceA: "Orange/White",
				ChoiceB: "Green/Black",
				ChoiceC: "Purple/Gold",
				ChoiceD: "Blue/Gray",
				Correct: models.ChoiceA,
			},
		},
	})
}

package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/pkg/export"
	"github.com/noah-isme/classhub-api/pkg/storage"
)

type gradebookProvider interface {
	GradebookRows(ctx context.Context, teacherID string) ([]models.Submission, error)
}

type quizResultsProvider interface {
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService builds export datasets and persists rendered files.
type ExportService struct {
	gradebook gradebookProvider
	quizzes   quizResultsProvider
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(gradebook gradebookProvider, quizzes quizResultsProvider, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		gradebook: gradebook,
		quizzes:   quizzes,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download?token=%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ext := strings.ToLower(string(job.Params.Format))
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, ext)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeGradebook:
		return s.buildGradebookDataset(ctx, job.CreatedBy)
	case models.ExportTypeQuizResults:
		return s.buildQuizResultsDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildGradebookDataset(ctx context.Context, teacherID string) (export.Dataset, string, error) {
	rows, err := s.gradebook.GradebookRows(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		score := ""
		if row.Score != nil {
			score = fmt.Sprintf("%.2f", *row.Score)
		}
		feedback := ""
		if row.Feedback != nil {
			feedback = *row.Feedback
		}
		dataRows = append(dataRows, map[string]string{
			"Assignment ID": row.AssignmentID,
			"Student":       row.StudentName,
			"Submitted At":  formatExportTime(row.SubmittedAt),
			"Score":         score,
			"Feedback":      feedback,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Assignment ID", "Student", "Submitted At", "Score", "Feedback"},
		Rows:    dataRows,
	}
	return dataset, "Gradebook", nil
}

func (s *ExportService) buildQuizResultsDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	if params.QuizID == nil || *params.QuizID == "" {
		return export.Dataset{}, "", fmt.Errorf("quiz id missing from job params")
	}
	quiz, err := s.quizzes.GetByID(ctx, *params.QuizID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	attempts, err := s.quizzes.ListAttempts(ctx, quiz.ID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(attempts))
	for _, attempt := range attempts {
		dataRows = append(dataRows, map[string]string{
			"Student":      attempt.StudentName,
			"Submitted At": formatExportTime(attempt.SubmittedAt),
			"Score (%)":    fmt.Sprintf("%.2f", attempt.Score),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Submitted At", "Score (%)"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Quiz Results: %s", quiz.Title)
	return dataset, title, nil
}

func formatExportTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

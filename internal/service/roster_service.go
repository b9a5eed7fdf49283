package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studentreg/internal/models"
	appErrors "studentreg/pkg/errors"
	"studentreg/pkg/export"
)

// DecryptedPlaceholder is rendered in place of a contact field whose
// ciphertext could not be opened. The roster keeps serving the rest of
// the record.
const DecryptedPlaceholder = "<decryption error>"

type rosterStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RosterService serves the admin view of registrations with contact
// fields decrypted for display and export.
type RosterService struct {
	repo        rosterStudentRepository
	cipher      fieldCipher
	cache       rosterCache
	metrics     *MetricsService
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	cacheTTL    time.Duration
	maxPageSize int
}

// NewRosterService constructs a RosterService. Nil renderers fall back
// to the default CSV and PDF exporters.
func NewRosterService(repo rosterStudentRepository, cipher fieldCipher, cache rosterCache, metrics *MetricsService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, cacheTTL time.Duration, maxPageSize int) *RosterService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &RosterService{
		repo:        repo,
		cipher:      cipher,
		cache:       cache,
		metrics:     metrics,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
		cacheTTL:    cacheTTL,
		maxPageSize: maxPageSize,
	}
}

type cachedRosterPage struct {
	Entries    []models.RosterEntry `json:"entries"`
	Pagination *models.Pagination   `json:"pagination"`
}

// List returns a page of registrations with decrypted contact fields.
func (s *RosterService) List(ctx context.Context, filter models.StudentFilter) ([]models.RosterEntry, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}

	key := fmt.Sprintf("roster:%d:%d:%s", filter.Page, filter.PageSize, filter.Search)
	if s.cache != nil {
		var cached cachedRosterPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHit()
			}
			return cached.Entries, cached.Pagination, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMiss()
		}
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}

	entries := make([]models.RosterEntry, 0, len(students))
	for _, student := range students {
		entries = append(entries, s.toEntry(student))
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedRosterPage{Entries: entries, Pagination: pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache roster page", zap.Error(err))
		}
	}

	return entries, pagination, nil
}

// Get returns a single registration with decrypted contact fields.
func (s *RosterService) Get(ctx context.Context, id string) (*models.RosterEntry, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	entry := s.toEntry(*student)
	return &entry, nil
}

// ExportFormat enumerates the roster export renderings.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult holds a rendered roster document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the entire roster as CSV or PDF.
func (s *RosterService) Export(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}

	headers := []string{"ID", "Name", "Email", "Mobile", "Class", "Created"}
	rows := make([]map[string]string, 0, len(students))
	for _, student := range students {
		entry := s.toEntry(student)
		rows = append(rows, map[string]string{
			"ID":      entry.ID,
			"Name":    entry.Name,
			"Email":   entry.Email,
			"Mobile":  entry.Mobile,
			"Class":   entry.StudentClass,
			"Created": entry.Created.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student-roster-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportPDF:
		data, err := s.pdf.Render(dataset, "Student Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student-roster-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *RosterService) toEntry(student models.Student) models.RosterEntry {
	entry := models.RosterEntry{
		ID:           student.ID,
		Name:         student.Name,
		StudentClass: student.StudentClass,
		Created:      student.Created,
		Modified:     student.Modified,
	}

	email, err := s.cipher.Decrypt(student.Email)
	if err != nil {
		s.logger.Warn("failed to decrypt email for display", zap.String("student_id", student.ID), zap.Error(err))
		entry.Email = DecryptedPlaceholder
		entry.DecryptError = true
	} else {
		entry.Email = email
	}

	mobile, err := s.cipher.Decrypt(student.Mobile)
	if err != nil {
		s.logger.Warn("failed to decrypt mobile for display", zap.String("student_id", student.ID), zap.Error(err))
		entry.Mobile = DecryptedPlaceholder
		entry.DecryptError = true
	} else {
		entry.Mobile = mobile
	}

	return entry
}

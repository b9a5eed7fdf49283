package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"studentreg/internal/models"
	appErrors "studentreg/pkg/errors"
	"studentreg/pkg/fingerprint"
)

// RosterCacheKeyPattern matches every cached roster page.
const RosterCacheKeyPattern = "roster:*"

type registrationStudentRepository interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type rosterCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type confirmationMailer interface {
	SendConfirmation(ctx context.Context, email ConfirmationEmail) error
}

type fieldCipher interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(ciphertext []byte) (string, error)
}

// RegisterRequest holds the intake form payload.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Mobile       string `json:"mobile" validate:"required,max=20"`
	StudentClass string `json:"student_class" validate:"max=100"`
}

// RegistrationResult echoes the accepted registration back to the form.
type RegistrationResult struct {
	RegistrationID string    `json:"registration_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	StudentClass   string    `json:"student_class,omitempty"`
	Created        time.Time `json:"created"`
	EmailSent      bool      `json:"email_sent"`
}

// RegistrationService runs the intake flow: validate, check duplicates
// against the decrypted table, encrypt, persist, confirm by email.
//
// The duplicate check decrypts every stored record per attempt, so cost
// grows linearly with the table. The check and the insert are not one
// atomic step either: two concurrent attempts with the same contact
// fields can both pass their checks before either insert commits.
type RegistrationService struct {
	repo      registrationStudentRepository
	checker   *DuplicateChecker
	cipher    fieldCipher
	cache     rosterCacheInvalidator
	mailer    confirmationMailer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	minMobileDigits int
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(
	repo registrationStudentRepository,
	checker *DuplicateChecker,
	cipher fieldCipher,
	cache rosterCacheInvalidator,
	mailer confirmationMailer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	minMobileDigits int,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if checker == nil {
		checker = NewDuplicateChecker(logger)
	}
	if minMobileDigits <= 0 {
		minMobileDigits = 10
	}
	return &RegistrationService{
		repo:            repo,
		checker:         checker,
		cipher:          cipher,
		cache:           cache,
		mailer:          mailer,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		minMobileDigits: minMobileDigits,
	}
}

// Register processes one registration attempt.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if digits := fingerprint.NormalizeMobile(req.Mobile); len(digits) < s.minMobileDigits {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("mobile number must contain at least %d digits", s.minMobileDigits))
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing registrations")
	}

	result := s.checker.Check(Candidate{Email: req.Email, Mobile: req.Mobile}, records, s.cipher.Decrypt)
	if s.metrics != nil {
		s.metrics.ObserveDuplicateScan(len(records), result.SkippedRecords)
	}
	if result.SkippedRecords > 0 {
		s.logger.Warn("duplicate check skipped undecryptable records",
			zap.Int("skipped", result.SkippedRecords),
			zap.Int("scanned", len(records)),
		)
	}
	if verdictErr := s.verdictError(result); verdictErr != nil {
		if s.metrics != nil {
			s.metrics.IncConflict(result.Verdict)
		}
		s.logger.Info("registration rejected as duplicate",
			zap.String("verdict", string(result.Verdict)),
			zap.String("matched_id", result.MatchedID),
		)
		return nil, verdictErr
	}

	email := fingerprint.NormalizeEmail(req.Email)
	emailCT, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encrypt email")
	}
	mobileCT, err := s.cipher.Encrypt(req.Mobile)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encrypt mobile")
	}

	student := &models.Student{
		Name:         req.Name,
		Email:        emailCT,
		Mobile:       mobileCT,
		StudentClass: req.StudentClass,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, RosterCacheKeyPattern); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
	}

	emailSent := false
	if s.mailer != nil {
		confirmation := ConfirmationEmail{
			To:             email,
			StudentName:    req.Name,
			StudentClass:   req.StudentClass,
			RegistrationID: student.ID,
		}
		if err := s.mailer.SendConfirmation(ctx, confirmation); err != nil {
			// The registration already succeeded; a mail failure must not
			// undo it. Mirror that in the response instead.
			s.logger.Warn("failed to send confirmation email", zap.String("student_id", student.ID), zap.Error(err))
		} else {
			emailSent = true
		}
	}

	s.logger.Info("registration accepted", zap.String("student_id", student.ID))

	return &RegistrationResult{
		RegistrationID: student.ID,
		Name:           student.Name,
		Email:          email,
		StudentClass:   student.StudentClass,
		Created:        student.Created,
		EmailSent:      emailSent,
	}, nil
}

func (s *RegistrationService) verdictError(result DuplicateResult) error {
	switch result.Verdict {
	case EmailConflict:
		return appErrors.Clone(appErrors.ErrDuplicateEmail, "")
	case MobileConflict:
		return appErrors.Clone(appErrors.ErrDuplicateMobile, "")
	case CombinedConflict:
		return appErrors.Clone(appErrors.ErrDuplicateContact, "")
	default:
		return nil
	}
}

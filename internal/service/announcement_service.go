package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hsms-project/hsms-api/internal/models"
	appErrors "github.com/hsms-project/hsms-api/pkg/errors"
)

type announcementRepository interface {
	ListActive(ctx context.Context, date string) ([]models.Announcement, error)
	ListAll(ctx context.Context) ([]models.Announcement, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// teacherDirectory answers whether a username belongs to a known teacher.
// Swapping in a credentialed implementation only needs to honor this contract.
type teacherDirectory interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

const activeCacheKeyPrefix = "announcements:active:"

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	teachers  teacherDirectory
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service. cache may be nil.
func NewAnnouncementService(repo announcementRepository, teachers teacherDirectory, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// CreateAnnouncementRequest describes the create payload.
type CreateAnnouncementRequest struct {
	Message        string  `json:"message" validate:"required"`
	ExpirationDate string  `json:"expiration_date"`
	StartDate      *string `json:"start_date"`
}

// UpdateAnnouncementRequest describes the update payload.
type UpdateAnnouncementRequest struct {
	Message        string  `json:"message" validate:"required"`
	ExpirationDate string  `json:"expiration_date"`
	StartDate      *string `json:"start_date"`
}

// ListActive returns announcements whose date window contains the current UTC
// date, newest first. No authorization is required.
func (s *AnnouncementService) ListActive(ctx context.Context) ([]models.Announcement, error) {
	today := time.Now().UTC().Format(models.DateLayout)
	cacheKey := activeCacheKeyPrefix + today

	var cached []models.Announcement
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	announcements, err := s.repo.ListActive(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active announcements")
	}

	_ = s.cache.Set(ctx, cacheKey, announcements, 0)
	return announcements, nil
}

// ListAll returns every announcement regardless of date window, newest first.
func (s *AnnouncementService) ListAll(ctx context.Context, teacherUsername string) ([]models.Announcement, error) {
	if err := s.authorize(ctx, teacherUsername); err != nil {
		return nil, err
	}
	announcements, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Create registers a new announcement authored by the given teacher.
func (s *AnnouncementService) Create(ctx context.Context, teacherUsername string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.authorize(ctx, teacherUsername); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	startDate := normalizeOptional(req.StartDate)
	expirationDate := strings.TrimSpace(req.ExpirationDate)
	if err := s.validateWindow(startDate, expirationDate); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Message:        req.Message,
		StartDate:      startDate,
		ExpirationDate: expirationDate,
		CreatedBy:      teacherUsername,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.invalidateActiveCache(ctx)
	return announcement, nil
}

// Update overwrites the mutable fields of an existing announcement and returns
// the post-update record. created_by and created_at are never changed.
func (s *AnnouncementService) Update(ctx context.Context, teacherUsername, id string, req UpdateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.authorize(ctx, teacherUsername); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid announcement id")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	startDate := normalizeOptional(req.StartDate)
	expirationDate := strings.TrimSpace(req.ExpirationDate)
	if err := s.validateWindow(startDate, expirationDate); err != nil {
		return nil, err
	}

	existing.Message = req.Message
	existing.StartDate = startDate
	existing.ExpirationDate = expirationDate
	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	if affected == 0 {
		// The row existed a moment ago; a zero-row update means the store is
		// misbehaving rather than the target being gone.
		return nil, appErrors.Clone(appErrors.ErrInternal, "failed to update announcement")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load updated announcement")
	}
	s.invalidateActiveCache(ctx)
	return updated, nil
}

// Delete permanently removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, teacherUsername, id string) error {
	if err := s.authorize(ctx, teacherUsername); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid announcement id")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	s.invalidateActiveCache(ctx)
	return nil
}

// authorize enforces the teacher directory check shared by every protected
// operation. A missing username and an unrecognized username fail differently.
func (s *AnnouncementService) authorize(ctx context.Context, teacherUsername string) error {
	if strings.TrimSpace(teacherUsername) == "" {
		return appErrors.ErrAuthRequired
	}
	exists, err := s.teachers.ExistsByUsername(ctx, teacherUsername)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teacher credentials")
	}
	if !exists {
		return appErrors.ErrInvalidCredentials
	}
	return nil
}

// validateWindow checks the date rules shared by create and update: the
// expiration date is required, both dates must be ISO calendar dates, and the
// start date may not fall after the expiration date.
func (s *AnnouncementService) validateWindow(startDate *string, expirationDate string) error {
	if expirationDate == "" {
		return appErrors.Clone(appErrors.ErrValidation, "expiration date is required")
	}
	if _, err := time.Parse(models.DateLayout, expirationDate); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid expiration date format, use YYYY-MM-DD")
	}
	if startDate != nil {
		if _, err := time.Parse(models.DateLayout, *startDate); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid start date format, use YYYY-MM-DD")
		}
		// ISO date strings order lexicographically.
		if *startDate > expirationDate {
			return appErrors.Clone(appErrors.ErrValidation, "start date cannot be after expiration date")
		}
	}
	return nil
}

func (s *AnnouncementService) invalidateActiveCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, activeCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate announcement cache", zap.Error(err))
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

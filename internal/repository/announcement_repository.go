package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hsms-project/hsms-api/internal/models"
)

// queryObserver receives per-query timings. *service.MetricsService satisfies it.
type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

func observeQuery(obs queryObserver, label string, start time.Time) {
	if obs != nil {
		obs.ObserveDBQuery(label, time.Since(start))
	}
}

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewAnnouncementRepository creates the repository. An optional observer
// records query timings.
func NewAnnouncementRepository(db *sqlx.DB, observers ...queryObserver) *AnnouncementRepository {
	r := &AnnouncementRepository{db: db}
	if len(observers) > 0 {
		r.metrics = observers[0]
	}
	return r
}

// ListActive returns announcements whose date window contains the given date,
// newest first. The date is an ISO YYYY-MM-DD string; window columns hold the
// same format, so string comparison matches chronological comparison.
func (r *AnnouncementRepository) ListActive(ctx context.Context, date string) ([]models.Announcement, error) {
	const query = `SELECT id, message, start_date, expiration_date, created_by, created_at
FROM announcements
WHERE expiration_date >= $1 AND (start_date IS NULL OR start_date <= $1)
ORDER BY created_at DESC`
	defer observeQuery(r.metrics, "announcements_list_active", time.Now())
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, date); err != nil {
		return nil, fmt.Errorf("list active announcements: %w", err)
	}
	return announcements, nil
}

// ListAll returns every announcement regardless of date window, newest first.
func (r *AnnouncementRepository) ListAll(ctx context.Context) ([]models.Announcement, error) {
	const query = `SELECT id, message, start_date, expiration_date, created_by, created_at
FROM announcements
ORDER BY created_at DESC`
	defer observeQuery(r.metrics, "announcements_list_all", time.Now())
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	const query = `SELECT id, message, start_date, expiration_date, created_by, created_at
FROM announcements WHERE id = $1`
	defer observeQuery(r.metrics, "announcements_get_by_id", time.Now())
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO announcements (id, message, start_date, expiration_date, created_by, created_at)
VALUES (:id, :message, :start_date, :expiration_date, :created_by, :created_at)`
	defer observeQuery(r.metrics, "announcements_create", time.Now())
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an announcement and reports how
// many rows matched. created_by and created_at are never touched.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) (int64, error) {
	const query = `UPDATE announcements SET message = :message, start_date = :start_date, expiration_date = :expiration_date
WHERE id = :id`
	defer observeQuery(r.metrics, "announcements_update", time.Now())
	result, err := r.db.NamedExecContext(ctx, query, announcement)
	if err != nil {
		return 0, fmt.Errorf("update announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update announcement: rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes an announcement and reports how many rows matched.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) (int64, error) {
	defer observeQuery(r.metrics, "announcements_delete", time.Now())
	result, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("delete announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete announcement: rows affected: %w", err)
	}
	return affected, nil
}

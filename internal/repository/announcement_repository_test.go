package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsms-project/hsms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func announcementColumns() []string {
	return []string{"id", "message", "start_date", "expiration_date", "created_by", "created_at"}
}

func TestAnnouncementRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	rows := sqlmock.NewRows(announcementColumns()).
		AddRow("5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f", "Exam Friday", nil, "2025-12-31", "t1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, message, start_date, expiration_date, created_by, created_at
FROM announcements
WHERE expiration_date >= $1 AND (start_date IS NULL OR start_date <= $1)
ORDER BY created_at DESC`)).
		WithArgs("2025-06-15").
		WillReturnRows(rows)

	result, err := repo.ListActive(context.Background(), "2025-06-15")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Exam Friday", result[0].Message)
	assert.Nil(t, result[0].StartDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	rows := sqlmock.NewRows(announcementColumns()).
		AddRow("5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f", "Newer", nil, "2025-12-31", "t1", time.Now()).
		AddRow("7c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f", "Older", "2025-01-01", "2025-02-01", "t2", time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, message, start_date, expiration_date, created_by, created_at
FROM announcements
ORDER BY created_at DESC`)).
		WillReturnRows(rows)

	result, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Newer", result[0].Message)
	require.NotNil(t, result[1].StartDate)
	assert.Equal(t, "2025-01-01", *result[1].StartDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO announcements (id, message, start_date, expiration_date, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs(sqlmock.AnyArg(), "Exam Friday", nil, "2025-12-31", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	announcement := &models.Announcement{
		Message:        "Exam Friday",
		ExpirationDate: "2025-12-31",
		CreatedBy:      "t1",
	}
	require.NoError(t, repo.Create(context.Background(), announcement))
	assert.NotEmpty(t, announcement.ID)
	assert.False(t, announcement.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryUpdateReportsAffectedRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE announcements SET message = $1, start_date = $2, expiration_date = $3
WHERE id = $4`)).
		WithArgs("Exam moved", nil, "2025-12-31", "5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), &models.Announcement{
		ID:             "5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f",
		Message:        "Exam moved",
		ExpirationDate: "2025-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryDeleteMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAnnouncementRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM announcements WHERE id = $1`)).
		WithArgs("5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), "5bb34e92-0f5b-4d5c-8f0a-2b9c3a1d4e5f")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

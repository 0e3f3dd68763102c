package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TeacherRepository looks up teacher directory accounts.
type TeacherRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewTeacherRepository constructs a TeacherRepository. An optional observer
// records query timings.
func NewTeacherRepository(db *sqlx.DB, observers ...queryObserver) *TeacherRepository {
	r := &TeacherRepository{db: db}
	if len(observers) > 0 {
		r.metrics = observers[0]
	}
	return r
}

// ExistsByUsername reports whether the directory knows the given username.
func (r *TeacherRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	defer observeQuery(r.metrics, "teachers_exists_by_username", time.Now())
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM teachers WHERE username = $1)", username); err != nil {
		return false, fmt.Errorf("check teacher exists: %w", err)
	}
	return exists, nil
}

package models

import "time"

// DateLayout is the calendar date format used for announcement windows.
// ISO dates compare lexicographically in chronological order, so the
// repository can filter on the raw strings.
const DateLayout = "2006-01-02"

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID             string    `db:"id" json:"id"`
	Message        string    `db:"message" json:"message"`
	StartDate      *string   `db:"start_date" json:"start_date,omitempty"`
	ExpirationDate string    `db:"expiration_date" json:"expiration_date"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

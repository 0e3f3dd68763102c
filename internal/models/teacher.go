package models

import "time"

// Teacher represents a teacher directory account. The API only consults the
// directory to decide whether a supplied username belongs to a known teacher.
type Teacher struct {
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

package model

import "time"

// Sound is an uploaded adhan audio file. A sound may be bound to a single
// prayer name or used as the default for every primary alert.
type Sound struct {
	ID         int       `db:"id"          json:"id"`
	Name       string    `db:"name"        json:"name"`
	URL        string    `db:"url"         json:"url"`
	PrayerName *string   `db:"prayer_name" json:"prayer_name"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	CreatedBy  int       `db:"created_by"  json:"created_by"`
}

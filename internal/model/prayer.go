package model

import "time"

// Status of a single prayer within its day. "Active" is intentionally absent:
// whether a prayer is currently inside its window is derived from the clock,
// never stored.
type PrayerStatus string

const (
	StatusUpcoming  PrayerStatus = "upcoming"
	StatusCompleted PrayerStatus = "completed"
	StatusMissed    PrayerStatus = "missed"
)

// Canonical prayer names as returned by the AlAdhan API.
const (
	PrayerFajr    = "Fajr"
	PrayerSunrise = "Sunrise"
	PrayerDhuhr   = "Dhuhr"
	PrayerAsr     = "Asr"
	PrayerMaghrib = "Maghrib"
	PrayerIsha    = "Isha"
)

// Prayer is one named time point of a day. Name is unique within the day and
// acts as the key. Time is the raw "HH:MM" string from the provider; it is
// parsed lazily so a single malformed entry never invalidates the set.
type Prayer struct {
	Name   string       `db:"name"   json:"name"`
	Time   string       `db:"time"   json:"time"`
	Status PrayerStatus `db:"status" json:"status"`
}

// Actionable reports whether the prayer participates in the status machine
// and reminder planning. Sunrise only bounds Fajr's window; it cannot be
// active, missed or acknowledged.
func (p Prayer) Actionable() bool {
	return p.Name != PrayerSunrise
}

// PrayerDay is the ordered set of prayers for one local calendar day.
// Slice order is chronological and defines window adjacency.
type PrayerDay struct {
	Day     string   `json:"day"` // "yyyy-MM-dd"
	Prayers []Prayer `json:"prayers"`
}

// DayKeyFormat is the fixed, locale-independent layout used for day keys in
// the store and cache.
const DayKeyFormat = "2006-01-02"

// DayKey formats t's local calendar date as a storage key.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// ByName returns the prayer with the given name, or nil.
func (d *PrayerDay) ByName(name string) *Prayer {
	for i := range d.Prayers {
		if d.Prayers[i].Name == name {
			return &d.Prayers[i]
		}
	}
	return nil
}

// ReminderSettings controls follow-up reminder planning.
type ReminderSettings struct {
	IntervalMinutes  int       `db:"interval_minutes"   json:"interval_minutes"`
	Enabled          bool      `db:"enabled"            json:"enabled"`
	LastWindowPolicy string    `db:"last_window_policy" json:"last_window_policy"`
	UpdatedAt        time.Time `db:"updated_at"         json:"updated_at"`
}

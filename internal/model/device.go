package model

import "time"

// Device represents a paired athan display or companion app instance that
// receives notification schedule commands over MQTT.
type Device struct {
	ID        int       `db:"id"         json:"id"`
	DeviceID  *string   `db:"device_id"  json:"device_id"`
	Name      string    `db:"name"       json:"name"`
	Location  *string   `db:"location"   json:"location"`
	Paired    bool      `db:"paired"     json:"paired"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
)

// GetReminderSettings loads the single reminder settings row, falling back to
// defaults when none has been saved yet.
func GetReminderSettings() (model.ReminderSettings, error) {
	var s model.ReminderSettings
	const q = `
	SELECT interval_minutes, enabled, last_window_policy, updated_at
	  FROM reminder_settings
	 WHERE id = 1;
	`
	err := DB.Get(&s, q)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReminderSettings{
			IntervalMinutes:  10,
			Enabled:          true,
			LastWindowPolicy: "clamp",
		}, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("GetReminderSettings failed")
		return model.ReminderSettings{}, err
	}
	return s, nil
}

// SaveReminderSettings upserts the single settings row.
func SaveReminderSettings(s model.ReminderSettings) error {
	const q = `
	INSERT INTO reminder_settings (id, interval_minutes, enabled, last_window_policy, updated_at)
	VALUES (1, $1, $2, $3, now())
	ON CONFLICT (id) DO UPDATE
	SET interval_minutes = EXCLUDED.interval_minutes,
	    enabled = EXCLUDED.enabled,
	    last_window_policy = EXCLUDED.last_window_policy,
	    updated_at = now();
	`
	if _, err := DB.Exec(q, s.IntervalMinutes, s.Enabled, s.LastWindowPolicy); err != nil {
		log.Error().Err(err).Msg("SaveReminderSettings failed")
		return err
	}
	return nil
}

package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
)

// CreateSound records an uploaded adhan audio file.
func CreateSound(name, url string, prayerName *string, createdBy int) (model.Sound, error) {
	var s model.Sound
	const q = `
	INSERT INTO sounds (name, url, prayer_name, created_by, created_at)
	VALUES ($1, $2, $3, $4, now())
	RETURNING id, name, url, prayer_name, created_by, created_at;
	`
	if err := DB.Get(&s, q, name, url, prayerName, createdBy); err != nil {
		log.Error().Err(err).Msg("CreateSound failed")
		return model.Sound{}, err
	}
	return s, nil
}

// ListSounds returns all uploaded sounds, newest first.
func ListSounds() ([]model.Sound, error) {
	var out []model.Sound
	const q = `
	SELECT id, name, url, prayer_name, created_by, created_at
	  FROM sounds
	 ORDER BY id DESC;
	`
	if err := DB.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListSounds failed")
		return nil, err
	}
	return out, nil
}

// GetSoundURLForPrayer resolves the adhan audio for a prayer: a sound bound
// to that prayer wins, otherwise the newest unbound (default) sound. Returns
// "" when nothing is uploaded.
func GetSoundURLForPrayer(prayerName string) string {
	var url string
	const q = `
	SELECT url
	  FROM sounds
	 WHERE prayer_name = $1 OR prayer_name IS NULL
	 ORDER BY (prayer_name = $1) DESC NULLS LAST, id DESC
	 LIMIT 1;
	`
	err := DB.Get(&url, q, prayerName)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		log.Error().Err(err).Str("prayer", prayerName).Msg("GetSoundURLForPrayer failed")
		return ""
	}
	return url
}

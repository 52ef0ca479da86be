package db

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
)

// SavePrayerDay upserts the snapshot for one calendar day. The prayer list is
// stored as jsonb so the chronological order survives round trips.
func SavePrayerDay(day *model.PrayerDay) error {
	payload, err := json.Marshal(day.Prayers)
	if err != nil {
		return err
	}
	const q = `
	INSERT INTO prayer_days (day, prayers, created_at, updated_at)
	VALUES ($1, $2, now(), now())
	ON CONFLICT (day) DO UPDATE
	SET prayers = EXCLUDED.prayers, updated_at = now();
	`
	if _, err := DB.Exec(q, day.Day, payload); err != nil {
		log.Error().Err(err).Str("day", day.Day).Msg("SavePrayerDay failed")
		return err
	}
	return nil
}

type prayerDayRow struct {
	Day     string    `db:"day"`
	Prayers []byte    `db:"prayers"`
	Updated time.Time `db:"updated_at"`
}

func (r prayerDayRow) decode() (*model.PrayerDay, error) {
	out := &model.PrayerDay{Day: r.Day}
	if err := json.Unmarshal(r.Prayers, &out.Prayers); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPrayerDay loads the snapshot for one day key ("yyyy-MM-dd").
func GetPrayerDay(dayKey string) (*model.PrayerDay, error) {
	var row prayerDayRow
	const q = `SELECT day, prayers, updated_at FROM prayer_days WHERE day = $1;`
	if err := DB.Get(&row, q, dayKey); err != nil {
		return nil, err
	}
	return row.decode()
}

// ListPrayerDays returns stored snapshots with day keys in [from, to],
// ordered by day descending. A malformed stored row is skipped rather than
// failing the whole listing.
func ListPrayerDays(from, to string) ([]*model.PrayerDay, error) {
	var rows []prayerDayRow
	const q = `
	SELECT day, prayers, updated_at
	  FROM prayer_days
	 WHERE day >= $1 AND day <= $2
	 ORDER BY day DESC;
	`
	if err := DB.Select(&rows, q, from, to); err != nil {
		log.Error().Err(err).Msg("ListPrayerDays failed")
		return nil, err
	}
	out := make([]*model.PrayerDay, 0, len(rows))
	for _, r := range rows {
		d, err := r.decode()
		if err != nil {
			log.Warn().Err(err).Str("day", r.Day).Msg("skipping undecodable prayer day row")
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

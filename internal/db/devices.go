package db

import (
	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
)

// CreateDevice registers an unpaired device placeholder owned by a user.
func CreateDevice(name string, location *string, createdBy int) (model.Device, error) {
	var d model.Device
	const q = `
	INSERT INTO devices (name, location, paired, created_by, created_at, updated_at)
	VALUES ($1, $2, false, $3, now(), now())
	RETURNING id, device_id, name, location, paired, created_by, created_at, updated_at;
	`
	if err := DB.Get(&d, q, name, location, createdBy); err != nil {
		log.Error().Err(err).Msg("CreateDevice failed")
		return model.Device{}, err
	}
	return d, nil
}

// ListDevices returns the devices owned by a user, oldest first.
func ListDevices(ownerID int) ([]model.Device, error) {
	var out []model.Device
	const q = `
	SELECT id, device_id, name, location, paired, created_by, created_at, updated_at
	  FROM devices
	 WHERE created_by = $1
	 ORDER BY id;
	`
	if err := DB.Select(&out, q, ownerID); err != nil {
		log.Error().Err(err).Msg("ListDevices failed")
		return nil, err
	}
	return out, nil
}

// GetDeviceByID fetches one device row.
func GetDeviceByID(id int) (model.Device, error) {
	var d model.Device
	const q = `
	SELECT id, device_id, name, location, paired, created_by, created_at, updated_at
	  FROM devices
	 WHERE id = $1;
	`
	if err := DB.Get(&d, q, id); err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("GetDeviceByID failed")
		return model.Device{}, err
	}
	return d, nil
}

// GetDeviceByDeviceID fetches the row bound to a physical device identifier.
func GetDeviceByDeviceID(deviceID string) (model.Device, error) {
	var d model.Device
	const q = `
	SELECT id, device_id, name, location, paired, created_by, created_at, updated_at
	  FROM devices
	 WHERE device_id = $1;
	`
	if err := DB.Get(&d, q, deviceID); err != nil {
		return model.Device{}, err
	}
	return d, nil
}

// PairDevice binds a physical device identifier to a device row.
func PairDevice(id int, deviceID string) error {
	const q = `
	UPDATE devices
	   SET device_id = $2, paired = true, updated_at = now()
	 WHERE id = $1;
	`
	if _, err := DB.Exec(q, id, deviceID); err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("PairDevice failed")
		return err
	}
	return nil
}

// ListPairedDeviceIDs returns the physical identifiers of every paired
// device; the notification sink publishes to one topic per identifier.
func ListPairedDeviceIDs() ([]string, error) {
	var out []string
	const q = `SELECT device_id FROM devices WHERE paired = true AND device_id IS NOT NULL;`
	if err := DB.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListPairedDeviceIDs failed")
		return nil, err
	}
	return out, nil
}

// Package-level query functions are wrapped by a Store interface so HTTP
// handlers and the tracker can be tested against an in-memory fake.
package db

import (
	"github.com/jmoiron/sqlx"

	"github.com/minaret-app/minaret/internal/model"
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// prayer day snapshots
	SavePrayerDay(day *model.PrayerDay) error
	GetPrayerDay(dayKey string) (*model.PrayerDay, error)
	ListPrayerDays(from, to string) ([]*model.PrayerDay, error)

	// reminder settings
	GetReminderSettings() (model.ReminderSettings, error)
	SaveReminderSettings(s model.ReminderSettings) error

	// devices
	CreateDevice(name string, location *string, createdBy int) (model.Device, error)
	ListDevices(ownerID int) ([]model.Device, error)
	GetDeviceByID(id int) (model.Device, error)
	GetDeviceByDeviceID(deviceID string) (model.Device, error)
	PairDevice(id int, deviceID string) error
	ListPairedDeviceIDs() ([]string, error)

	// sounds
	CreateSound(name, url string, prayerName *string, createdBy int) (model.Sound, error)
	ListSounds() ([]model.Sound, error)
	GetSoundURLForPrayer(prayerName string) string
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}

func (s *pgStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	return CreateUser(email, hashedPassword, name)
}

func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	return GetUserByEmail(email)
}

func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	return GetUserByID(id)
}

func (s *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	return UpdateUserProfile(id, email, name)
}

func (s *pgStore) SavePrayerDay(day *model.PrayerDay) error {
	return SavePrayerDay(day)
}

func (s *pgStore) GetPrayerDay(dayKey string) (*model.PrayerDay, error) {
	return GetPrayerDay(dayKey)
}

func (s *pgStore) ListPrayerDays(from, to string) ([]*model.PrayerDay, error) {
	return ListPrayerDays(from, to)
}

func (s *pgStore) GetReminderSettings() (model.ReminderSettings, error) {
	return GetReminderSettings()
}

func (s *pgStore) SaveReminderSettings(settings model.ReminderSettings) error {
	return SaveReminderSettings(settings)
}

func (s *pgStore) CreateDevice(name string, location *string, createdBy int) (model.Device, error) {
	return CreateDevice(name, location, createdBy)
}

func (s *pgStore) ListDevices(ownerID int) ([]model.Device, error) {
	return ListDevices(ownerID)
}

func (s *pgStore) GetDeviceByID(id int) (model.Device, error) {
	return GetDeviceByID(id)
}

func (s *pgStore) GetDeviceByDeviceID(deviceID string) (model.Device, error) {
	return GetDeviceByDeviceID(deviceID)
}

func (s *pgStore) PairDevice(id int, deviceID string) error {
	return PairDevice(id, deviceID)
}

func (s *pgStore) ListPairedDeviceIDs() ([]string, error) {
	return ListPairedDeviceIDs()
}

func (s *pgStore) CreateSound(name, url string, prayerName *string, createdBy int) (model.Sound, error) {
	return CreateSound(name, url, prayerName, createdBy)
}

func (s *pgStore) ListSounds() ([]model.Sound, error) {
	return ListSounds()
}

func (s *pgStore) GetSoundURLForPrayer(prayerName string) string {
	return GetSoundURLForPrayer(prayerName)
}

package endpoints

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	"github.com/minaret-app/minaret/internal/http/api/admin/control/packets"
	"github.com/minaret-app/minaret/internal/model"
	"github.com/minaret-app/minaret/internal/storage"
)

var allowedSoundExtensions = map[string]bool{
	".mp3": true,
	".ogg": true,
	".wav": true,
	".m4a": true,
	".aac": true,
}

var validPrayerNames = map[string]bool{
	model.PrayerFajr:    true,
	model.PrayerDhuhr:   true,
	model.PrayerAsr:     true,
	model.PrayerMaghrib: true,
	model.PrayerIsha:    true,
}

// SoundsModule mounts adhan audio management. Uploads go through the
// configured storage backend (local disk or Spaces).
func SoundsModule(store db.Store, files storage.Storage) api.Module {
	ctl := &SoundManager{store: store, files: files}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sounds", ctl.listSounds)
		c.POST("/sounds", ctl.uploadSound)
	})
}

type SoundManager struct {
	store db.Store
	files storage.Storage
}

// GET /api/admin/sounds
func (m *SoundManager) listSounds(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	sounds, err := m.store.ListSounds()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list sounds"}
	}
	if sounds == nil {
		sounds = []model.Sound{}
	}
	return sounds, nil
}

// POST /api/admin/sounds (multipart: file + name + optional prayer_name)
func (m *SoundManager) uploadSound(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateSoundRequest
	if err := ctx.ShouldBind(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if request.PrayerName != nil && !validPrayerNames[*request.PrayerName] {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "prayer_name is not an actionable prayer"}
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing sound file"}
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedSoundExtensions[ext] {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "unsupported audio format"}
	}

	url, err := m.files.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store sound file"}
	}

	sound, err := m.store.CreateSound(request.Name, url, request.PrayerName, user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save sound"}
	}
	return sound, nil
}

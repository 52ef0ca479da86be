package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	"github.com/minaret-app/minaret/internal/http/api/admin/control/packets"
	"github.com/minaret-app/minaret/internal/model"
	"github.com/minaret-app/minaret/internal/prayer"
)

// SettingsModule mounts the reminder configuration endpoints. Updates are
// written through to the database and applied to the live tracker, which
// replans every pending reminder.
func SettingsModule(tracker *prayer.Tracker, store db.Store) api.Module {
	ctl := &SettingsManager{tracker: tracker, store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/settings/reminders", ctl.getReminderSettings)
		c.PUT("/settings/reminders", ctl.updateReminderSettings)
	})
}

type SettingsManager struct {
	tracker *prayer.Tracker
	store   db.Store
}

// GET /api/admin/settings/reminders
func (m *SettingsManager) getReminderSettings(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	settings, err := m.store.GetReminderSettings()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load settings"}
	}
	return settings, nil
}

// PUT /api/admin/settings/reminders
func (m *SettingsManager) updateReminderSettings(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateReminderSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	settings := model.ReminderSettings{
		IntervalMinutes:  request.IntervalMinutes,
		Enabled:          *request.Enabled,
		LastWindowPolicy: request.LastWindowPolicy,
		UpdatedAt:        time.Now(),
	}
	if settings.LastWindowPolicy == "" {
		settings.LastWindowPolicy = string(prayer.LastWindowClamp)
	}

	if err := m.store.SaveReminderSettings(settings); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save settings"}
	}
	m.tracker.SetSettings(settings)

	return settings, nil
}

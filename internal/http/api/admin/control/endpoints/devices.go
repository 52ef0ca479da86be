package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	"github.com/minaret-app/minaret/internal/http/api/admin/control/packets"
	"github.com/minaret-app/minaret/internal/model"
	"github.com/minaret-app/minaret/internal/redis"
)

// DevicesModule mounts registration and pairing-claim endpoints for athan
// display devices. A device obtains a short code via the public pairing API
// and shows it on screen; the admin claims it here.
func DevicesModule(store db.Store) api.Module {
	ctl := &DeviceManager{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/devices", ctl.listDevices)
		c.POST("/devices", ctl.createDevice)
		c.POST("/devices/:id/claim", ctl.claimDevice)
	})
}

type DeviceManager struct {
	store db.Store
}

// GET /api/admin/devices
func (m *DeviceManager) listDevices(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	devices, err := m.store.ListDevices(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list devices"}
	}
	if devices == nil {
		devices = []model.Device{}
	}
	return devices, nil
}

// POST /api/admin/devices
func (m *DeviceManager) createDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	device, err := m.store.CreateDevice(request.Name, request.Location, user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create device"}
	}
	return device, nil
}

// POST /api/admin/devices/:id/claim
func (m *DeviceManager) claimDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid device id"}
	}

	var request packets.ClaimDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	device, err := m.store.GetDeviceByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "device not found"}
	}
	if device.CreatedBy != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "not your device"}
	}

	deviceID, ok := redis.ResolvePairCode(ctx.Request.Context(), request.Code)
	if !ok {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "invalid or expired pairing code"}
	}

	if err := m.store.PairDevice(device.ID, deviceID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not pair device"}
	}
	redis.ConsumePairCode(ctx.Request.Context(), request.Code)
	log.Info().Str("device_id", deviceID).Str("name", device.Name).Msg("device paired")

	paired, err := m.store.GetDeviceByID(device.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not reload device"}
	}
	return paired, nil
}

package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	"github.com/minaret-app/minaret/internal/http/api/device/packets"
	"github.com/minaret-app/minaret/internal/notify"
	"github.com/minaret-app/minaret/internal/redis"
)

// PairingModule mounts the public endpoints a device uses to join the fleet:
// it requests a short code, shows it on screen, and polls confirm until the
// admin has claimed it. On success it learns its MQTT command topic.
func PairingModule(store db.Store) api.Module {
	ctl := &PairingManager{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/pair/request", ctl.requestCode)
		c.PUBLIC_POST("/pair/confirm", ctl.confirm)
	})
}

type PairingManager struct {
	store db.Store
}

// POST /api/device/pair/request
func (m *PairingManager) requestCode(ctx *gin.Context) (any, *api.APIError) {
	var request packets.PairRequestRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	code := redis.NewPairCode(ctx.Request.Context(), request.DeviceID)
	return packets.PairRequestResponse{
		Code:      code,
		ExpiresIn: int(redis.PairCodeTTL.Seconds()),
	}, nil
}

// POST /api/device/pair/confirm
func (m *PairingManager) confirm(ctx *gin.Context) (any, *api.APIError) {
	var request packets.PairConfirmRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	device, err := m.store.GetDeviceByDeviceID(request.DeviceID)
	if err != nil || !device.Paired {
		// Not claimed yet; the device keeps polling.
		return packets.PairConfirmResponse{Paired: false}, nil
	}

	return packets.PairConfirmResponse{
		Paired: true,
		Name:   device.Name,
		Topic:  notify.DeviceTopic(request.DeviceID),
	}, nil
}

package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	"github.com/minaret-app/minaret/internal/http/api/admin/control/packets"
	"github.com/minaret-app/minaret/internal/model"
	"github.com/minaret-app/minaret/internal/prayer"
)

// PrayersModule mounts the prayer lifecycle endpoints: today's snapshot,
// history, acknowledgment and an explicit refetch.
func PrayersModule(tracker *prayer.Tracker, store db.Store) api.Module {
	ctl := &PrayerManager{tracker: tracker, store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayers/today", ctl.getToday)
		c.GET("/prayers/history", ctl.getHistory)
		c.POST("/prayers/:name/ack", ctl.acknowledge)
		c.POST("/prayers/refresh", ctl.refresh)
	})
}

type PrayerManager struct {
	tracker *prayer.Tracker
	store   db.Store
}

// GET /api/admin/prayers/today
func (m *PrayerManager) getToday(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	return m.tracker.Snapshot(), nil
}

// GET /api/admin/prayers/history?from=yyyy-MM-dd&to=yyyy-MM-dd
func (m *PrayerManager) getHistory(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.HistoryRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	for _, key := range []string{request.From, request.To} {
		if _, err := time.Parse(model.DayKeyFormat, key); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "dates must be yyyy-MM-dd"}
		}
	}

	days, err := m.store.ListPrayerDays(request.From, request.To)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load history"}
	}
	return packets.HistoryResponse{Days: days}, nil
}

// POST /api/admin/prayers/:name/ack
func (m *PrayerManager) acknowledge(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.AcknowledgePrayerRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := m.tracker.Acknowledge(request.Name); err != nil {
		switch {
		case errors.Is(err, prayer.ErrNoData):
			return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "no prayer data loaded"}
		case errors.Is(err, prayer.ErrUnknownPrayer):
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "unknown prayer"}
		case errors.Is(err, prayer.ErrNotAcknowledgeable):
			return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: "prayer cannot be acknowledged"}
		default:
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not acknowledge prayer"}
		}
	}
	return packets.AcknowledgeResponse{Name: request.Name, Status: string(model.StatusCompleted)}, nil
}

// POST /api/admin/prayers/refresh
func (m *PrayerManager) refresh(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := m.tracker.Refresh(ctx.Request.Context()); err != nil {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "prayer times refetch failed"}
	}
	return m.tracker.Snapshot(), nil
}

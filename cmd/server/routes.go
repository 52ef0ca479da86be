package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/http/api"
	authapi "github.com/minaret-app/minaret/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/minaret-app/minaret/internal/http/api/admin/control/endpoints"
	deviceapi "github.com/minaret-app/minaret/internal/http/api/device/endpoints"
	"github.com/minaret-app/minaret/internal/prayer"
	"github.com/minaret-app/minaret/internal/storage"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, storageSystem storage.Storage, tracker *prayer.Tracker) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
	},
		// control modules
		adminapi.PrayersModule(tracker, store),
		adminapi.SettingsModule(tracker, store),
		adminapi.DevicesModule(store),
		adminapi.SoundsModule(store, storageSystem),
		// session endpoints that require auth
		authapi.AuthSessionModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/device",
	},
		deviceapi.PairingModule(store),
	)

	// Static content
	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/aladhan"
	"github.com/minaret-app/minaret/internal/db"
	"github.com/minaret-app/minaret/internal/notify"
	"github.com/minaret-app/minaret/internal/prayer"
	"github.com/minaret-app/minaret/internal/redis"
)

func main() {
	env := LoadEnvironment()

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// initialize PostgreSQL
	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrations failed")
	}

	redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	store := db.NewStore()
	storageSystem := InitStorage(env)

	sink, err := notify.NewMQTTSink(env.MQTTBrokerURL, env.MQTTClientID, store.ListPairedDeviceIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt sink init failed")
	}
	defer sink.Close()

	location := time.Local
	if env.Timezone != "" {
		loc, err := time.LoadLocation(env.Timezone)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", env.Timezone).Msg("invalid TIMEZONE")
		}
		location = loc
	}

	settings, err := store.GetReminderSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load reminder settings")
	}

	engine := prayer.NewEngine(location, prayer.ParseLastWindowPolicy(settings.LastWindowPolicy))
	tracker := prayer.NewTracker(prayer.TrackerConfig{
		Engine:    engine,
		Planner:   prayer.NewPlanner(engine),
		Provider:  aladhan.NewCachedProvider(aladhan.NewClient()),
		Store:     store,
		Sink:      sink,
		Logger:    log.Logger,
		Latitude:  env.Latitude,
		Longitude: env.Longitude,
		Settings:  settings,
		SoundURL:  store.GetSoundURLForPrayer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("prayer tracker exited")
		}
	}()

	r := gin.Default()
	RegisterRoutes(r, env, store, storageSystem, tracker)

	server := &http.Server{Addr: env.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

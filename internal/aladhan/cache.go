package aladhan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
	"github.com/minaret-app/minaret/internal/redis"
)

const cacheTTL = 48 * time.Hour

// CachedProvider wraps a Client with a redis last-known-good layer: every
// successful fetch is cached, and a fetch failure falls back to the last
// payload seen for that day and location, so a flaky provider never blanks an
// already-loaded day.
type CachedProvider struct {
	client *Client
}

func NewCachedProvider(client *Client) *CachedProvider {
	return &CachedProvider{client: client}
}

func cacheKey(latitude, longitude float64, day time.Time) string {
	return fmt.Sprintf("aladhan:%.4f:%.4f:%s", latitude, longitude, model.DayKey(day))
}

func (p *CachedProvider) FetchDay(ctx context.Context, latitude, longitude float64, day time.Time) (*model.PrayerDay, error) {
	key := cacheKey(latitude, longitude, day)

	fresh, err := p.client.FetchDay(ctx, latitude, longitude, day)
	if err != nil {
		var cached model.PrayerDay
		if redis.GetUnmarshalledJSON(ctx, key, &cached) {
			log.Warn().Err(err).Str("day", model.DayKey(day)).Msg("aladhan fetch failed, serving cached day")
			return &cached, nil
		}
		return nil, err
	}

	redis.SetJSON(ctx, key, fresh, cacheTTL)
	return fresh, nil
}

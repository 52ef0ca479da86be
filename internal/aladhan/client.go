package aladhan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/model"
)

// Failure taxonomy. Callers treat any of these as "retain last known good";
// retry policy belongs to the caller, not this client.
var (
	ErrNoData      = errors.New("aladhan: no timings in response")
	ErrMalformed   = errors.New("aladhan: malformed response payload")
	ErrUnavailable = errors.New("aladhan: service unavailable")
)

const defaultBaseURL = "https://api.aladhan.com"

// Client fetches daily prayer times from the AlAdhan API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   *struct {
		Timings struct {
			Fajr    string `json:"Fajr"`
			Sunrise string `json:"Sunrise"`
			Dhuhr   string `json:"Dhuhr"`
			Asr     string `json:"Asr"`
			Maghrib string `json:"Maghrib"`
			Isha    string `json:"Isha"`
		} `json:"timings"`
	} `json:"data"`
}

// FetchDay returns the six daily time points for the given location and day,
// in list order, all statuses Upcoming. Status correction for windows that
// already ended is the window engine's job, not the provider's.
func (c *Client) FetchDay(ctx context.Context, latitude, longitude float64, day time.Time) (*model.PrayerDay, error) {
	url := fmt.Sprintf("%s/v1/timings/%s?latitude=%f&longitude=%f",
		c.baseURL, day.Format("02-01-2006"), latitude, longitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		log.Warn().Int("status", resp.StatusCode).Msg("aladhan rejected request")
		return nil, fmt.Errorf("%w: status %d", ErrNoData, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if body.Data == nil {
		return nil, ErrNoData
	}

	t := body.Data.Timings
	set := &model.PrayerDay{
		Day: model.DayKey(day),
		Prayers: []model.Prayer{
			{Name: model.PrayerFajr, Time: t.Fajr, Status: model.StatusUpcoming},
			{Name: model.PrayerSunrise, Time: t.Sunrise, Status: model.StatusUpcoming},
			{Name: model.PrayerDhuhr, Time: t.Dhuhr, Status: model.StatusUpcoming},
			{Name: model.PrayerAsr, Time: t.Asr, Status: model.StatusUpcoming},
			{Name: model.PrayerMaghrib, Time: t.Maghrib, Status: model.StatusUpcoming},
			{Name: model.PrayerIsha, Time: t.Isha, Status: model.StatusUpcoming},
		},
	}
	log.Info().Str("day", set.Day).Msg("fetched prayer times from aladhan")
	return set, nil
}

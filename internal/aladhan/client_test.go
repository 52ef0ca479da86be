package aladhan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaret-app/minaret/internal/model"
)

const timingsFixture = `{
	"code": 200,
	"status": "OK",
	"data": {
		"timings": {
			"Fajr": "05:12",
			"Sunrise": "06:41 (EET)",
			"Dhuhr": "12:58",
			"Asr": "16:21",
			"Maghrib": "19:07",
			"Isha": "20:29"
		}
	}
}`

func TestFetchDay(t *testing.T) {
	day := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/timings/15-03-2025", r.URL.Path)
		assert.Equal(t, "41.008200", r.URL.Query().Get("latitude"))
		fmt.Fprint(w, timingsFixture)
	}))
	defer server.Close()

	set, err := NewClientWithBaseURL(server.URL).FetchDay(context.Background(), 41.0082, 28.9784, day)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-15", set.Day)
	require.Len(t, set.Prayers, 6)
	assert.Equal(t, model.PrayerFajr, set.Prayers[0].Name)
	assert.Equal(t, "05:12", set.Prayers[0].Time)
	assert.Equal(t, model.PrayerSunrise, set.Prayers[1].Name)
	assert.Equal(t, "06:41 (EET)", set.Prayers[1].Time, "raw provider time is preserved")
	assert.Equal(t, model.PrayerIsha, set.Prayers[5].Name)
	for _, p := range set.Prayers {
		assert.Equal(t, model.StatusUpcoming, p.Status)
	}
}

func TestFetchDay_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClientWithBaseURL(server.URL).FetchDay(context.Background(), 0, 0, time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchDay_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClientWithBaseURL(server.URL).FetchDay(context.Background(), 0, 0, time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchDay_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer server.Close()

	_, err := NewClientWithBaseURL(server.URL).FetchDay(context.Background(), 0, 0, time.Now())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchDay_MissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 200, "status": "OK", "data": null}`)
	}))
	defer server.Close()

	_, err := NewClientWithBaseURL(server.URL).FetchDay(context.Background(), 0, 0, time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchDay_Unreachable(t *testing.T) {
	_, err := NewClientWithBaseURL("http://127.0.0.1:1").FetchDay(context.Background(), 0, 0, time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}

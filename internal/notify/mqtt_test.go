package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minaret-app/minaret/internal/prayer"
)

func TestDeviceTopic(t *testing.T) {
	assert.Equal(t, "athan/abc-123/commands", DeviceTopic("abc-123"))
}

// Requires a broker on localhost; skipped otherwise.
func TestMQTTSinkRoundTrip(t *testing.T) {
	devices := func() ([]string, error) { return []string{"test-device-123"}, nil }

	sink, err := NewMQTTSink("tcp://localhost:1883", "minaret-test", devices)
	if err != nil {
		t.Skipf("MQTT broker not available, skipping test: %v", err)
	}
	defer sink.Close()

	alert := prayer.Alert{
		Owner: "Dhuhr",
		Key:   prayer.OwnerPrefix("Dhuhr") + "athan",
		At:    time.Now().Add(time.Hour),
		Kind:  prayer.AlertPrimary,
	}
	payload := prayer.Payload{
		Kind:    prayer.AlertPrimary,
		Prayer:  "Dhuhr",
		At:      alert.At,
		Message: "It's time for Dhuhr.",
	}

	assert.NoError(t, sink.Schedule(alert, payload))
	assert.NoError(t, sink.CancelPrefix(prayer.OwnerPrefix("Dhuhr")))
}

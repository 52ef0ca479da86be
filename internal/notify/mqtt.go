package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/minaret-app/minaret/internal/prayer"
)

// Command is the wire message pushed to a device's command topic. Devices
// register the local notification on "schedule" and drop every pending
// notification whose key starts with Prefix on "cancel".
type Command struct {
	Action  string          `json:"action"` // "schedule" | "cancel"
	Key     string          `json:"key,omitempty"`
	At      time.Time       `json:"at,omitempty"`
	Prefix  string          `json:"prefix,omitempty"`
	Payload *prayer.Payload `json:"payload,omitempty"`
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Error().Err(err).Msg("MQTT connection lost")
}

// MQTTSink delivers schedule/cancel commands to every paired device over a
// shared MQTT client. It satisfies the tracker's Sink contract; the broker
// and the devices own actual delivery.
type MQTTSink struct {
	mu      sync.RWMutex
	client  mqtt.Client
	devices func() ([]string, error)
}

// NewMQTTSink connects to the broker and returns a sink that publishes to
// one topic per device returned by deviceIDs.
func NewMQTTSink(brokerURL, clientID string, deviceIDs func() ([]string, error)) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", brokerURL).Msg("MQTT sink initialized")
	return &MQTTSink{client: client, devices: deviceIDs}, nil
}

// DeviceTopic is the per-device command topic a paired device subscribes to.
func DeviceTopic(deviceID string) string {
	return fmt.Sprintf("athan/%s/commands", deviceID)
}

// Schedule pushes one pre-computed notification instant to every paired
// device.
func (s *MQTTSink) Schedule(alert prayer.Alert, payload prayer.Payload) error {
	return s.broadcast(Command{
		Action:  "schedule",
		Key:     alert.Key,
		At:      alert.At,
		Payload: &payload,
	})
}

// CancelPrefix revokes every pending notification whose key starts with
// prefix on every paired device.
func (s *MQTTSink) CancelPrefix(prefix string) error {
	return s.broadcast(Command{Action: "cancel", Prefix: prefix})
}

func (s *MQTTSink) broadcast(cmd Command) error {
	message, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	ids, err := s.devices()
	if err != nil {
		return fmt.Errorf("could not list paired devices: %w", err)
	}

	var failed []string
	for _, deviceID := range ids {
		token := s.client.Publish(DeviceTopic(deviceID), 1, false, message)
		token.Wait()
		if token.Error() != nil {
			failed = append(failed, fmt.Sprintf("device %s: %v", deviceID, token.Error()))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to publish to some devices: %v", failed)
	}
	return nil
}

// Close disconnects the underlying MQTT client.
func (s *MQTTSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Disconnect(250)
		log.Info().Msg("MQTT sink disconnected")
	}
}

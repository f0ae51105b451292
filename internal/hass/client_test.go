package hass

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jgulick48/openevse-bridge/internal/models"
)

type MockCommander struct {
	mock.Mock
}

func (m *MockCommander) Enable() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCommander) Sleep() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCommander) SetChargeLimit(limit int) error {
	args := m.Called(limit)
	return args.Error(0)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func newTestClient(commander Commander) *client {
	return NewClient(models.MQTTConfiguration{
		Host: "192.168.1.4",
		Port: 1883,
	}, DeviceInfo{
		Name:       "Garage Charger",
		Identifier: "Garage Charger",
		SWVersion:  "7.1.3",
	}, commander, 40, "").(*client)
}

func Test_Topics(t *testing.T) {
	c := newTestClient(nil)
	assert.Equal(t, "openevse/garage_charger/charging_current/state", c.stateTopic("charging_current"))
	assert.Equal(t, "openevse/garage_charger/enabled/set", c.commandTopic("enabled"))
	assert.Equal(t, "openevse/garage_charger/availability", c.availabilityTopic())
}

func Test_IsEnabled(t *testing.T) {
	c := newTestClient(nil)
	assert.True(t, c.IsEnabled())
	disabled := NewClient(models.MQTTConfiguration{}, DeviceInfo{Name: "openevse"}, nil, 40, "").(*client)
	assert.False(t, disabled.IsEnabled())
}

func Test_HandleEnabledCommand(t *testing.T) {
	commander := &MockCommander{}
	c := newTestClient(commander)
	commander.On("Enable").Return(nil).Once()
	c.handleEnabledCommand(nil, fakeMessage{topic: c.commandTopic("enabled"), payload: []byte("ON")})
	commander.On("Sleep").Return(nil).Once()
	c.handleEnabledCommand(nil, fakeMessage{topic: c.commandTopic("enabled"), payload: []byte("OFF")})
	// Unknown payloads are ignored.
	c.handleEnabledCommand(nil, fakeMessage{topic: c.commandTopic("enabled"), payload: []byte("TOGGLE")})
	commander.AssertExpectations(t)
}

func Test_HandleLimitCommand(t *testing.T) {
	commander := &MockCommander{}
	c := newTestClient(commander)
	commander.On("SetChargeLimit", 24).Return(nil).Once()
	c.handleLimitCommand(nil, fakeMessage{topic: c.commandTopic("charge_limit"), payload: []byte("24")})
	c.handleLimitCommand(nil, fakeMessage{topic: c.commandTopic("charge_limit"), payload: []byte("lots")})
	commander.AssertExpectations(t)
}

func Test_HandleLoadMessage(t *testing.T) {
	c := newTestClient(nil)
	_, ok := c.HouseLoad()
	assert.False(t, ok)
	c.handleLoadMessage(nil, fakeMessage{topic: "home/power/mains_current", payload: []byte("23.4")})
	load, ok := c.HouseLoad()
	assert.True(t, ok)
	assert.Equal(t, 23.4, load)
	c.handleLoadMessage(nil, fakeMessage{topic: "home/power/mains_current", payload: []byte(`{"value": 40.1}`)})
	load, _ = c.HouseLoad()
	assert.Equal(t, 40.1, load)
}

func Test_ParseLoadPayload(t *testing.T) {
	value, ok := parseLoadPayload([]byte(" 12.5 "))
	assert.True(t, ok)
	assert.Equal(t, 12.5, value)
	value, ok = parseLoadPayload([]byte(`{"value": 8}`))
	assert.True(t, ok)
	assert.Equal(t, 8.0, value)
	_, ok = parseLoadPayload([]byte(`{"value": null}`))
	assert.False(t, ok)
	_, ok = parseLoadPayload([]byte("unavailable"))
	assert.False(t, ok)
}

func Test_FormatValue(t *testing.T) {
	assert.Equal(t, "16.4", formatValue(16.4))
	assert.Equal(t, "2000", formatValue(2000.0))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "charging", formatValue("charging"))
}

func Test_DiscoveryPayload(t *testing.T) {
	payload := SensorJSON{
		UniqueID:          "garage_charger_charging_current",
		Name:              "Garage Charger Charge Current",
		StateTopic:        "openevse/garage_charger/charging_current/state",
		AvailabilityTopic: "openevse/garage_charger/availability",
		StateClass:        "measurement",
		DeviceClass:       "current",
		UnitOfMeasurement: "A",
		Device: SensorDevice{
			Manufacturer: "OpenEVSE",
			Name:         "Garage Charger",
			SWVersion:    "7.1.3",
			Identifiers:  []string{"Garage Charger"},
		},
	}
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "garage_charger_charging_current", decoded["unique_id"])
	assert.Equal(t, "measurement", decoded["state_class"])
	// Empty optional fields stay out of the payload.
	_, hasPayloadOn := decoded["payload_on"]
	assert.False(t, hasPayloadOn)
}

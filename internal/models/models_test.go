package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var configString = `{
  "bridgeName": "Garage Charger",
  "pin": "00102003",
  "port": "12321",
  "statsServer": "192.168.1.5:8125",
  "metricsAddress": ":2112",
  "evseConfig": {
    "address": "http://192.168.1.21",
    "username": "admin",
    "password": "openevse",
    "name": "openevse",
    "pollInterval": "10s",
    "maxChargeCurrent": 40,
    "minCurrentBuffer": 5,
    "automation": {
      "enabled": true,
      "serviceLimit": 50,
      "loadTopic": "home/power/mains_current",
      "interval": "30s"
    }
  },
  "mqttConfig": {
    "host": "192.168.1.4",
    "port": 1883,
    "topicPrefix": "openevse",
    "discoveryPrefix": "homeassistant"
  }
}`

var expectedConfig = Config{
	BridgeName:     "Garage Charger",
	PIN:            "00102003",
	Port:           "12321",
	StatsServer:    "192.168.1.5:8125",
	MetricsAddress: ":2112",
	EVSEConfig: EVSEConfig{
		Address:          "http://192.168.1.21",
		Username:         "admin",
		Password:         "openevse",
		Name:             "openevse",
		PollInterval:     Duration{10 * time.Second},
		MaxChargeCurrent: 40,
		MinCurrentBuffer: 5,
		Automation: ChargeAutomation{
			Enabled:      true,
			ServiceLimit: 50,
			LoadTopic:    "home/power/mains_current",
			Interval:     Duration{30 * time.Second},
		},
	},
	MQTTConfig: MQTTConfiguration{
		Host:            "192.168.1.4",
		Port:            1883,
		TopicPrefix:     "openevse",
		DiscoveryPrefix: "homeassistant",
	},
}

func Test_ConfigParse(t *testing.T) {
	var actualConfig Config
	err := json.Unmarshal([]byte(configString), &actualConfig)
	assert.NoError(t, err)
	assert.Equal(t, expectedConfig, actualConfig)
}

func Test_DurationParse(t *testing.T) {
	var d Duration
	err := json.Unmarshal([]byte(`"5m"`), &d)
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d.Duration)
	err = json.Unmarshal([]byte(`30000000000`), &d)
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, d.Duration)
	err = json.Unmarshal([]byte(`true`), &d)
	assert.Error(t, err)
}

func Test_MessageParse(t *testing.T) {
	var message Message
	err := json.Unmarshal([]byte(`{"value": 23.4}`), &message)
	assert.NoError(t, err)
	assert.True(t, message.Value.Valid)
	assert.Equal(t, 23.4, message.Value.Float64)
	err = json.Unmarshal([]byte(`{"value": null}`), &message)
	assert.NoError(t, err)
	assert.False(t, message.Value.Valid)
}

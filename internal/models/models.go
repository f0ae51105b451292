package models

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"time"

	"github.com/guregu/null"
)

type Config struct {
	BridgeName     string            `json:"bridgeName"`
	PIN            string            `json:"pin"`
	Port           string            `json:"port"`
	EVSEConfig     EVSEConfig        `json:"evseConfig"`
	MQTTConfig     MQTTConfiguration `json:"mqttConfig"`
	StatsServer    string            `json:"statsServer"`
	MetricsAddress string            `json:"metricsAddress"`
}

type EVSEConfig struct {
	Address          string           `json:"address"`
	Username         string           `json:"username"`
	Password         string           `json:"password"`
	Name             string           `json:"name"`
	PollInterval     Duration         `json:"pollInterval"`
	SerialDevice     string           `json:"serialDevice"`
	SerialBaud       int              `json:"serialBaud"`
	MaxChargeCurrent int              `json:"maxChargeCurrent"`
	MinCurrentBuffer int              `json:"minCurrentBuffer"`
	Automation       ChargeAutomation `json:"automation"`
}

type MQTTConfiguration struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	TopicPrefix     string `json:"topicPrefix"`
	DiscoveryPrefix string `json:"discoveryPrefix"`
}

type ChargeAutomation struct {
	Enabled      bool     `json:"enabled"`
	ServiceLimit float64  `json:"serviceLimit"`
	LoadTopic    string   `json:"loadTopic"`
	Interval     Duration `json:"interval"`
}

// Message is the JSON payload shape used by load sensors that publish
// structured values, e.g. {"value": 23.4}.
type Message struct {
	Value null.Float `json:"value"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func LoadClientConfig(filename string) Config {
	if filename == "" {
		filename = "./config.json"
	}
	configFile, err := ioutil.ReadFile(filename)
	if err != nil {
		log.Printf("No config file found at %s", filename)
		panic(err)
	}
	var config Config
	err = json.Unmarshal(configFile, &config)
	if err != nil {
		log.Printf("Invalid config file provided")
		panic(err)
	}
	if config.EVSEConfig.PollInterval.Duration == 0 {
		config.EVSEConfig.PollInterval = Duration{10 * time.Second}
	}
	if config.EVSEConfig.MaxChargeCurrent == 0 {
		config.EVSEConfig.MaxChargeCurrent = 48
	}
	if config.MQTTConfig.Host != "" && config.MQTTConfig.Port == 0 {
		config.MQTTConfig.Port = 1883
	}
	return config
}

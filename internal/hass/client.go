package hass

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgulick48/openevse-bridge/internal/models"
	"github.com/jgulick48/openevse-bridge/internal/openevse"
)

// Commander is the slice of the charger client the command topics need.
type Commander interface {
	Enable() error
	Sleep() error
	SetChargeLimit(limit int) error
}

type Client interface {
	Close()
	Connect()
	IsEnabled() bool
	PublishState(readings map[string]interface{})
	HouseLoad() (float64, bool)
}

// DeviceInfo populates the discovery device block so Home Assistant
// groups every entity under one charger device.
type DeviceInfo struct {
	Name       string
	Identifier string
	Model      string
	SWVersion  string
}

type client struct {
	config     models.MQTTConfiguration
	device     DeviceInfo
	commander  Commander
	maxCurrent int
	loadTopic  string
	node       string
	mqttClient mqtt.Client

	loadMux   sync.RWMutex
	houseLoad float64
	hasLoad   bool
}

func NewClient(config models.MQTTConfiguration, device DeviceInfo, commander Commander, maxCurrent int, loadTopic string) Client {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "openevse"
	}
	if config.DiscoveryPrefix == "" {
		config.DiscoveryPrefix = "homeassistant"
	}
	return &client{
		config:     config,
		device:     device,
		commander:  commander,
		maxCurrent: maxCurrent,
		loadTopic:  loadTopic,
		node:       slug(device.Name),
	}
}

func (c *client) IsEnabled() bool {
	return c.config.Host != ""
}

func (c *client) Connect() {
	broker := fmt.Sprintf("tcp://%s:%d", c.config.Host, c.config.Port)
	log.Printf("Connecting to %s", broker)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("openevse_bridge_%s", c.node))
	if c.config.Username != "" && c.config.Password != "" {
		opts.SetUsername(c.config.Username)
		opts.SetPassword(c.config.Password)
	}
	opts.SetWill(c.availabilityTopic(), "offline", 0, true)
	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = connectLostHandler
	c.mqttClient = mqtt.NewClient(opts)
	if token := c.mqttClient.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("Error connecting to mqtt client: %s", token.Error())
	}
}

func (c *client) Close() {
	if c.mqttClient == nil || !c.mqttClient.IsConnected() {
		return
	}
	token := c.mqttClient.Publish(c.availabilityTopic(), 0, true, "offline")
	token.Wait()
	c.mqttClient.Disconnect(250)
}

func (c *client) onConnect(mqttClient mqtt.Client) {
	log.Println("Connected")
	c.publishDiscovery()
	token := mqttClient.Publish(c.availabilityTopic(), 0, true, "online")
	token.Wait()
	c.subscribe(mqttClient, c.commandTopic("enabled"), c.handleEnabledCommand)
	c.subscribe(mqttClient, c.commandTopic("charge_limit"), c.handleLimitCommand)
	if c.loadTopic != "" {
		c.subscribe(mqttClient, c.loadTopic, c.handleLoadMessage)
	}
}

func (c *client) subscribe(mqttClient mqtt.Client, topic string, handler mqtt.MessageHandler) {
	token := mqttClient.Subscribe(topic, 1, handler)
	token.Wait()
	if token.Error() != nil {
		log.Printf("Error subscribing to topic %s: %s", topic, token.Error())
		return
	}
	log.Printf("Subscribed to topic: %s", topic)
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Printf("Connect lost: %v", err)
}

// PublishState pushes one coordinator snapshot to the per-key state
// topics. Intended to be registered as a coordinator subscriber.
func (c *client) PublishState(readings map[string]interface{}) {
	if c.mqttClient == nil || !c.mqttClient.IsConnected() {
		return
	}
	for key, value := range readings {
		c.mqttClient.Publish(c.stateTopic(key), 0, false, formatValue(value))
	}
	if status, ok := readings["status"].(string); ok {
		enabled := "ON"
		if status == "sleeping" || status == "disabled" {
			enabled = "OFF"
		}
		c.mqttClient.Publish(c.stateTopic("enabled"), 0, false, enabled)
	}
	c.mqttClient.Publish(c.availabilityTopic(), 0, true, "online")
}

// HouseLoad reports the last value seen on the configured load topic.
// Implements automation.LoadProvider.
func (c *client) HouseLoad() (float64, bool) {
	c.loadMux.RLock()
	defer c.loadMux.RUnlock()
	return c.houseLoad, c.hasLoad
}

func (c *client) handleEnabledCommand(mqttClient mqtt.Client, msg mqtt.Message) {
	payload := strings.TrimSpace(string(msg.Payload()))
	var err error
	switch payload {
	case "ON":
		err = c.commander.Enable()
	case "OFF":
		err = c.commander.Sleep()
	default:
		log.Printf("Got unexpected payload %s on %s", payload, msg.Topic())
		return
	}
	if err != nil {
		log.Printf("Error handling %s command: %s", payload, err)
		return
	}
	if c.mqttClient != nil {
		c.mqttClient.Publish(c.stateTopic("enabled"), 0, false, payload)
	}
}

func (c *client) handleLimitCommand(mqttClient mqtt.Client, msg mqtt.Message) {
	payload := strings.TrimSpace(string(msg.Payload()))
	limit, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		log.Printf("Got invalid charge limit %s on %s", payload, msg.Topic())
		return
	}
	if err := c.commander.SetChargeLimit(int(limit)); err != nil {
		log.Printf("Error setting charge limit to %s: %s", payload, err)
	}
}

func (c *client) handleLoadMessage(mqttClient mqtt.Client, msg mqtt.Message) {
	value, ok := parseLoadPayload(msg.Payload())
	if !ok {
		log.Printf("Got unparseable load payload on %s", msg.Topic())
		return
	}
	c.loadMux.Lock()
	c.houseLoad = value
	c.hasLoad = true
	c.loadMux.Unlock()
}

func (c *client) publishDiscovery() {
	device := SensorDevice{
		Manufacturer: "OpenEVSE",
		Model:        c.device.Model,
		Name:         c.device.Name,
		SWVersion:    c.device.SWVersion,
		Identifiers:  []string{c.device.Identifier},
	}
	for _, sensor := range openevse.SensorTypes {
		component := "sensor"
		payload := SensorJSON{
			UniqueID:          fmt.Sprintf("%s_%s", c.node, sensor.Key),
			Name:              fmt.Sprintf("%s %s", c.device.Name, sensor.Name),
			StateTopic:        c.stateTopic(sensor.Key),
			AvailabilityTopic: c.availabilityTopic(),
			StateClass:        sensor.StateClass,
			DeviceClass:       sensor.DeviceClass,
			UnitOfMeasurement: sensor.Unit,
			Device:            device,
		}
		if sensor.Key == "vehicle_connected" {
			component = "binary_sensor"
			payload.PayloadOn = "true"
			payload.PayloadOff = "false"
			payload.DeviceClass = "plug"
		}
		c.publishConfig(component, sensor.Key, payload)
	}
	c.publishConfig("switch", "enabled", SwitchJSON{
		UniqueID:          fmt.Sprintf("%s_enabled", c.node),
		Name:              fmt.Sprintf("%s Charging Enabled", c.device.Name),
		StateTopic:        c.stateTopic("enabled"),
		CommandTopic:      c.commandTopic("enabled"),
		AvailabilityTopic: c.availabilityTopic(),
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            device,
	})
	c.publishConfig("number", "charge_limit", NumberJSON{
		UniqueID:          fmt.Sprintf("%s_charge_limit", c.node),
		Name:              fmt.Sprintf("%s Charge Limit", c.device.Name),
		StateTopic:        c.stateTopic("charge_limit"),
		CommandTopic:      c.commandTopic("charge_limit"),
		AvailabilityTopic: c.availabilityTopic(),
		Min:               6,
		Max:               c.maxCurrent,
		Step:              1,
		UnitOfMeasurement: "A",
		Device:            device,
	})
}

func (c *client) publishConfig(component string, key string, payload interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", c.config.DiscoveryPrefix, component, c.node, key)
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling discovery config for %s: %s", key, err)
		return
	}
	token := c.mqttClient.Publish(topic, 0, true, body)
	token.Wait()
	if token.Error() != nil {
		log.Printf("Error publishing discovery config for %s: %s", key, token.Error())
	}
}

func (c *client) stateTopic(key string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.config.TopicPrefix, c.node, key)
}

func (c *client) commandTopic(key string) string {
	return fmt.Sprintf("%s/%s/%s/set", c.config.TopicPrefix, c.node, key)
}

func (c *client) availabilityTopic() string {
	return fmt.Sprintf("%s/%s/availability", c.config.TopicPrefix, c.node)
}

// parseLoadPayload accepts both raw numeric payloads and the structured
// {"value": x} form.
func parseLoadPayload(payload []byte) (float64, bool) {
	var message models.Message
	if err := json.Unmarshal(payload, &message); err == nil && message.Value.Valid {
		return message.Value.Float64, true
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

package hass

// Discovery payloads for the Home Assistant MQTT integration. See
// https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery

type SensorJSON struct {
	UniqueID          string       `json:"unique_id"`
	Name              string       `json:"name"`
	StateTopic        string       `json:"state_topic"`
	AvailabilityTopic string       `json:"availability_topic"`
	StateClass        string       `json:"state_class,omitempty"`
	DeviceClass       string       `json:"device_class,omitempty"`
	UnitOfMeasurement string       `json:"unit_of_measurement,omitempty"`
	PayloadOn         string       `json:"payload_on,omitempty"`
	PayloadOff        string       `json:"payload_off,omitempty"`
	Device            SensorDevice `json:"device"`
}

type SwitchJSON struct {
	UniqueID          string       `json:"unique_id"`
	Name              string       `json:"name"`
	StateTopic        string       `json:"state_topic"`
	CommandTopic      string       `json:"command_topic"`
	AvailabilityTopic string       `json:"availability_topic"`
	PayloadOn         string       `json:"payload_on"`
	PayloadOff        string       `json:"payload_off"`
	Device            SensorDevice `json:"device"`
}

type NumberJSON struct {
	UniqueID          string       `json:"unique_id"`
	Name              string       `json:"name"`
	StateTopic        string       `json:"state_topic"`
	CommandTopic      string       `json:"command_topic"`
	AvailabilityTopic string       `json:"availability_topic"`
	Min               int          `json:"min"`
	Max               int          `json:"max"`
	Step              int          `json:"step"`
	UnitOfMeasurement string       `json:"unit_of_measurement,omitempty"`
	Device            SensorDevice `json:"device"`
}

type SensorDevice struct {
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name"`
	SWVersion    string   `json:"sw_version,omitempty"`
	Identifiers  []string `json:"identifiers"`
}

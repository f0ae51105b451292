package openevse

// Sensor describes one charger reading exposed to the host platforms. The
// Value accessor reports false when the reading is unavailable, in which
// case the key is omitted from that cycle's data.
type Sensor struct {
	Key         string
	Name        string
	Unit        string
	DeviceClass string
	StateClass  string
	Value       func(status Status) (interface{}, bool)
}

// SensorTypes is the fixed table of charger readings. The order is what
// gets published, so keep it stable.
var SensorTypes = []Sensor{
	{
		Key:  "status",
		Name: "Charging Status",
		Value: func(s Status) (interface{}, bool) {
			return s.StateName(), true
		},
	},
	{
		Key:         "charging_current",
		Name:        "Charge Current",
		Unit:        "A",
		DeviceClass: "current",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return s.ChargingCurrent(), true
		},
	},
	{
		Key:         "charging_voltage",
		Name:        "Charging Voltage",
		Unit:        "V",
		DeviceClass: "voltage",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return valueOrSkip(s.ChargingVoltage())
		},
	},
	{
		Key:         "current_power",
		Name:        "Current Power Usage",
		Unit:        "W",
		DeviceClass: "power",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return valueOrSkip(s.CurrentPower())
		},
	},
	{
		Key:         "charge_limit",
		Name:        "Charge Limit",
		Unit:        "A",
		DeviceClass: "current",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return float64(s.Pilot), true
		},
	},
	{
		Key:         "usage_session",
		Name:        "Usage this Session",
		Unit:        "Wh",
		DeviceClass: "energy",
		StateClass:  "total_increasing",
		Value: func(s Status) (interface{}, bool) {
			return s.SessionEnergy(), true
		},
	},
	{
		Key:         "usage_total",
		Name:        "Total Usage",
		Unit:        "Wh",
		DeviceClass: "energy",
		StateClass:  "total_increasing",
		Value: func(s Status) (interface{}, bool) {
			return s.TotalEnergy(), true
		},
	},
	{
		Key:         "charge_time_elapsed",
		Name:        "Charge Time Elapsed",
		Unit:        "s",
		DeviceClass: "duration",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return float64(s.Elapsed), true
		},
	},
	{
		Key:         "ambient_temperature",
		Name:        "Ambient Temperature",
		Unit:        "°C",
		DeviceClass: "temperature",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return valueOrSkip(s.AmbientTemperature())
		},
	},
	{
		Key:         "rtc_temperature",
		Name:        "RTC Temperature",
		Unit:        "°C",
		DeviceClass: "temperature",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return valueOrSkip(s.RTCTemperature())
		},
	},
	{
		Key:         "ir_temperature",
		Name:        "IR Temperature",
		Unit:        "°C",
		DeviceClass: "temperature",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			return valueOrSkip(s.IRTemperature())
		},
	},
	{
		Key:         "wifi_signal",
		Name:        "WiFi Signal Strength",
		Unit:        "dBm",
		DeviceClass: "signal_strength",
		StateClass:  "measurement",
		Value: func(s Status) (interface{}, bool) {
			if !s.SRSSI.Valid {
				return nil, false
			}
			return float64(s.SRSSI.Int64), true
		},
	},
	{
		Key:  "vehicle_connected",
		Name: "Vehicle Connected",
		Value: func(s Status) (interface{}, bool) {
			return s.VehicleConnected(), true
		},
	},
	{
		Key:        "gfci_trip_count",
		Name:       "GFCI Trip Count",
		StateClass: "total_increasing",
		Value: func(s Status) (interface{}, bool) {
			return float64(s.GfciCount), true
		},
	},
	{
		Key:        "no_ground_count",
		Name:       "No Ground Count",
		StateClass: "total_increasing",
		Value: func(s Status) (interface{}, bool) {
			return float64(s.NoGndCount), true
		},
	},
	{
		Key:        "stuck_relay_count",
		Name:       "Stuck Relay Count",
		StateClass: "total_increasing",
		Value: func(s Status) (interface{}, bool) {
			return float64(s.StuckCount), true
		},
	},
}

func valueOrSkip(value float64, ok bool) (interface{}, bool) {
	if !ok {
		return nil, false
	}
	return value, true
}

// Readings evaluates the sensor table against one status snapshot.
// Unavailable readings are left out rather than reported as zero.
func Readings(status Status) map[string]interface{} {
	data := make(map[string]interface{}, len(SensorTypes))
	for _, sensor := range SensorTypes {
		if value, ok := sensor.Value(status); ok {
			data[sensor.Key] = value
		}
	}
	return data
}

package openevse

import "github.com/guregu/null"

// CommandResult is the reply envelope for a RAPI command issued through
// the wifi module's /r endpoint.
type CommandResult struct {
	CMD string `json:"cmd"`
	RET string `json:"ret"`
}

// Status is the charger state reported by GET /status. Current is in
// milliamps and voltage in millivolts, the way RAPI reports them. The
// temperature fields are tenths of a degree celsius and are null when the
// corresponding sensor is not installed.
type Status struct {
	Mode                string     `json:"mode"`
	WifiClientConnected int        `json:"wifi_client_connected"`
	SRSSI               null.Int   `json:"srssi"`
	IPAddress           string     `json:"ipaddr"`
	State               int        `json:"state"`
	Elapsed             int64      `json:"elapsed"`
	Amp                 int64      `json:"amp"`
	Pilot               int        `json:"pilot"`
	Voltage             null.Int   `json:"voltage"`
	Temp1               null.Int   `json:"temp1"`
	Temp2               null.Int   `json:"temp2"`
	Temp3               null.Int   `json:"temp3"`
	WattSec             float64    `json:"wattsec"`
	WattHour            float64    `json:"watthour"`
	GfciCount           int        `json:"gfcicount"`
	NoGndCount          int        `json:"nogndcount"`
	StuckCount          int        `json:"stuckcount"`
	DivertMode          null.Int   `json:"divertmode"`
	ChargeVelocity      null.Float `json:"charge_rate"`
}

// DeviceConfig is the subset of GET /config the bridge cares about:
// firmware identification and the service settings used for power math.
type DeviceConfig struct {
	Firmware   string `json:"firmware"`
	Protocol   string `json:"protocol"`
	Version    string `json:"version"`
	Service    int    `json:"service"`
	Scale      int    `json:"scale"`
	Offset     int    `json:"offset"`
	MaxCurrent int    `json:"max_current_soft"`
	SSID       string `json:"ssid"`
}

// Charger state codes as reported by $GS and the /status state field.
const (
	StateUnknown         = 0
	StateNotConnected    = 1
	StateConnected       = 2
	StateCharging        = 3
	StateVentRequired    = 4
	StateDiodeCheckFail  = 5
	StateGfciFault       = 6
	StateNoGround        = 7
	StateStuckRelay      = 8
	StateGfciSelfTestErr = 9
	StateOverTemperature = 10
	StateSleeping        = 254
	StateDisabled        = 255
)

var stateNames = map[int]string{
	StateUnknown:         "unknown",
	StateNotConnected:    "not connected",
	StateConnected:       "connected",
	StateCharging:        "charging",
	StateVentRequired:    "vent required",
	StateDiodeCheckFail:  "diode check failed",
	StateGfciFault:       "gfci fault",
	StateNoGround:        "no ground",
	StateStuckRelay:      "stuck relay",
	StateGfciSelfTestErr: "gfci self-test failure",
	StateOverTemperature: "over temperature",
	StateSleeping:        "sleeping",
	StateDisabled:        "disabled",
}

// StateName renders a charger state code as the well known display string.
// Codes outside the table render as "unknown".
func StateName(code int) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return stateNames[StateUnknown]
}

func (s Status) StateName() string {
	return StateName(s.State)
}

// ChargingCurrent converts the milliamp reading to amps.
func (s Status) ChargingCurrent() float64 {
	return float64(s.Amp) / 1000
}

// ChargingVoltage converts the millivolt reading to volts. Reports false
// when the firmware does not include a voltmeter reading.
func (s Status) ChargingVoltage() (float64, bool) {
	if !s.Voltage.Valid {
		return 0, false
	}
	return float64(s.Voltage.Int64) / 1000, true
}

// CurrentPower is the instantaneous draw in watts, derived from the
// current and voltage readings.
func (s Status) CurrentPower() (float64, bool) {
	volts, ok := s.ChargingVoltage()
	if !ok {
		return 0, false
	}
	return volts * s.ChargingCurrent(), true
}

func (s Status) VehicleConnected() bool {
	return s.State == StateConnected || s.State == StateCharging
}

func (s Status) Charging() bool {
	return s.State == StateCharging
}

// ChargingEnabled reports whether the charger will deliver power when a
// vehicle asks for it, i.e. it is neither sleeping nor disabled.
func (s Status) ChargingEnabled() bool {
	return s.State != StateSleeping && s.State != StateDisabled
}

// Firmware reports this sentinel for temperature sensors that are not
// installed.
const tempNotInstalled = -2560

func temperature(value null.Int) (float64, bool) {
	if !value.Valid || value.Int64 <= tempNotInstalled {
		return 0, false
	}
	return float64(value.Int64) / 10, true
}

func (s Status) AmbientTemperature() (float64, bool) {
	return temperature(s.Temp1)
}

func (s Status) RTCTemperature() (float64, bool) {
	return temperature(s.Temp2)
}

func (s Status) IRTemperature() (float64, bool) {
	return temperature(s.Temp3)
}

// SessionEnergy is the energy delivered this charge session in watt hours.
func (s Status) SessionEnergy() float64 {
	return s.WattSec / 3600
}

// TotalEnergy is the lifetime energy counter in watt hours.
func (s Status) TotalEnergy() float64 {
	return s.WattHour
}

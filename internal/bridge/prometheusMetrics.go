package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	chargerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargerState",
			Help: "Current charger state, 1 for the active state label.",
		},
		[]string{
			"name",
			"state",
		},
	)
	chargingCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargingCurrent",
			Help: "Charge current being delivered in amps.",
		},
		[]string{
			"name",
		},
	)
	chargingVoltage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargingVoltage",
			Help: "Charging voltage in volts.",
		},
		[]string{
			"name",
		},
	)
	chargingPower = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargingPower",
			Help: "Instantaneous charging power in watts.",
		},
		[]string{
			"name",
		},
	)
	chargeLimit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargeLimit",
			Help: "Configured charge current limit in amps.",
		},
		[]string{
			"name",
		},
	)
	sessionEnergy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessionEnergy",
			Help: "Energy delivered this session in watt hours.",
		},
		[]string{
			"name",
		},
	)
	totalEnergy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "totalEnergy",
			Help: "Lifetime energy counter in watt hours.",
		},
		[]string{
			"name",
		},
	)
	chargeTimeElapsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chargeTimeElapsed",
			Help: "Elapsed charge time in seconds.",
		},
		[]string{
			"name",
		},
	)
	ambientTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ambientTemperature",
			Help: "Ambient temperature at the charger in celsius.",
		},
		[]string{
			"name",
		},
	)
	wifiSignal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wifiSignal",
			Help: "WiFi signal strength in dBm.",
		},
		[]string{
			"name",
		},
	)
	vehicleConnected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vehicleConnected",
			Help: "1 when a vehicle is plugged in.",
		},
		[]string{
			"name",
		},
	)
	faultCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "faultCount",
			Help: "Charger safety fault counters.",
		},
		[]string{
			"name",
			"type",
		},
	)
)

var gaugesByKey = map[string]*prometheus.GaugeVec{
	"charging_current":    chargingCurrent,
	"charging_voltage":    chargingVoltage,
	"current_power":       chargingPower,
	"charge_limit":        chargeLimit,
	"usage_session":       sessionEnergy,
	"usage_total":         totalEnergy,
	"charge_time_elapsed": chargeTimeElapsed,
	"ambient_temperature": ambientTemperature,
	"wifi_signal":         wifiSignal,
}

var faultsByKey = map[string]string{
	"gfci_trip_count":   "gfci",
	"no_ground_count":   "no_ground",
	"stuck_relay_count": "stuck_relay",
}

// NewMetricsPublisher registers the charger gauges and returns a
// coordinator subscriber that keeps them current.
func NewMetricsPublisher(name string) func(readings map[string]interface{}) {
	prometheus.MustRegister(
		chargerState,
		chargingCurrent,
		chargingVoltage,
		chargingPower,
		chargeLimit,
		sessionEnergy,
		totalEnergy,
		chargeTimeElapsed,
		ambientTemperature,
		wifiSignal,
		vehicleConnected,
		faultCount,
	)
	return func(readings map[string]interface{}) {
		for key, value := range readings {
			number, isNumber := value.(float64)
			if gauge, ok := gaugesByKey[key]; ok && isNumber {
				gauge.WithLabelValues(name).Set(number)
				continue
			}
			if faultType, ok := faultsByKey[key]; ok && isNumber {
				faultCount.WithLabelValues(name, faultType).Set(number)
			}
		}
		if status, ok := readings["status"].(string); ok {
			chargerState.Reset()
			chargerState.WithLabelValues(name, status).Set(1)
		}
		if connected, ok := readings["vehicle_connected"].(bool); ok {
			gaugeValue := float64(0)
			if connected {
				gaugeValue = 1
			}
			vehicleConnected.WithLabelValues(name).Set(gaugeValue)
		}
	}
}

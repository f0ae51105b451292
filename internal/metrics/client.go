package metrics

import (
	"fmt"
	"log"

	"github.com/DataDog/datadog-go/v5/statsd"
)

var Metrics *statsd.Client
var StatsEnabled bool

// Configure connects the statsd client. An empty address leaves metrics
// disabled and every send becomes a no-op.
func Configure(address string, chargerName string) {
	if address == "" {
		return
	}
	client, err := statsd.New(address,
		statsd.WithNamespace("openevse."),
		statsd.WithTags([]string{FormatTag("charger", chargerName)}),
	)
	if err != nil {
		log.Printf("Unable to create stats client for %s: %s", address, err)
		return
	}
	Metrics = client
	StatsEnabled = true
}

func FormatTag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

func SendGaugeMetric(name string, tags []string, value float64) {
	if StatsEnabled {
		err := Metrics.Gauge(name, value, tags, 1)
		if err != nil {
			log.Printf("Got error trying to send metric %s", err.Error())
		}
	}
}

func SendCountMetric(name string, tags []string, value int64) {
	if StatsEnabled {
		err := Metrics.Count(name, value, tags, 1)
		if err != nil {
			log.Printf("Got error trying to send metric %s", err.Error())
		}
	}
}

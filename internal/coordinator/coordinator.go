package coordinator

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jgulick48/openevse-bridge/internal/metrics"
	"github.com/jgulick48/openevse-bridge/internal/openevse"
)

// Fetcher produces one status snapshot from the charger.
type Fetcher func() (openevse.Status, error)

// Subscriber receives the evaluated sensor readings after every
// successful refresh.
type Subscriber func(readings map[string]interface{})

// Coordinator polls the charger on a fixed interval and fans the readings
// out to subscribers. One blocking fetch per cycle; a failed cycle
// produces nothing and flips LastUpdateSuccess until the next good one.
type Coordinator struct {
	name     string
	interval time.Duration
	fetch    Fetcher

	mux         sync.RWMutex
	subscribers []Subscriber
	data        map[string]interface{}
	lastSuccess bool

	done chan bool
}

func New(name string, interval time.Duration, fetch Fetcher) *Coordinator {
	return &Coordinator{
		name:     name,
		interval: interval,
		fetch:    fetch,
		data:     map[string]interface{}{},
		done:     make(chan bool),
	}
}

// Subscribe registers a callback for refreshed readings. Subscribers are
// invoked from the polling goroutine, in registration order.
func (c *Coordinator) Subscribe(subscriber Subscriber) {
	c.mux.Lock()
	c.subscribers = append(c.subscribers, subscriber)
	c.mux.Unlock()
}

// Start refreshes once so subscribers have data immediately, then keeps
// refreshing on the configured interval until Stop.
func (c *Coordinator) Start() {
	log.Printf("Data for %s will be updated every %s", c.name, c.interval)
	c.Refresh()
	ticker := time.NewTicker(c.interval)
	go func() {
		for {
			select {
			case <-c.done:
				ticker.Stop()
				return
			case <-ticker.C:
				c.Refresh()
			}
		}
	}()
}

func (c *Coordinator) Stop() {
	c.done <- true
}

// Refresh runs one polling cycle.
func (c *Coordinator) Refresh() {
	status, err := c.fetch()
	if err != nil {
		log.Printf("Error updating sensors for %s: %s", c.name, err)
		c.mux.Lock()
		c.lastSuccess = false
		c.mux.Unlock()
		return
	}
	readings := openevse.Readings(status)
	c.mux.Lock()
	c.data = readings
	c.lastSuccess = true
	subscribers := make([]Subscriber, len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mux.Unlock()
	c.report(readings)
	for _, subscriber := range subscribers {
		subscriber(readings)
	}
}

// Data returns the readings from the last successful cycle.
func (c *Coordinator) Data() map[string]interface{} {
	c.mux.RLock()
	defer c.mux.RUnlock()
	data := make(map[string]interface{}, len(c.data))
	for key, value := range c.data {
		data[key] = value
	}
	return data
}

func (c *Coordinator) LastUpdateSuccess() bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.lastSuccess
}

func (c *Coordinator) report(readings map[string]interface{}) {
	if !metrics.StatsEnabled {
		return
	}
	for key, value := range readings {
		switch v := value.(type) {
		case float64:
			metrics.SendGaugeMetric(fmt.Sprintf("openevse_%s", key), []string{}, v)
		case bool:
			gaugeValue := 0
			if v {
				gaugeValue = 1
			}
			metrics.SendGaugeMetric(fmt.Sprintf("openevse_%s", key), []string{}, float64(gaugeValue))
		case string:
			metrics.SendGaugeMetric(fmt.Sprintf("openevse_%s", key), []string{metrics.FormatTag(key, v)}, float64(1))
		default:
			log.Printf("Got unrecognized type for record %s got %T", key, value)
		}
	}
}

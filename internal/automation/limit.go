package automation

import (
	"log"
	"math"
	"time"

	"github.com/jgulick48/openevse-bridge/internal/metrics"
	"github.com/jgulick48/openevse-bridge/internal/models"
	"github.com/jgulick48/openevse-bridge/internal/openevse"
)

// LoadProvider reports the most recent whole-house load in amps. The hass
// client implements it from the configured load topic.
type LoadProvider interface {
	HouseLoad() (float64, bool)
}

// Charger is the slice of the charger client the controller needs.
type Charger interface {
	GetStatus() (openevse.Status, error)
	GetChargeLimit() (int, error)
	SetChargeLimit(limit int) error
}

// LimitController keeps the charge current limit inside the electrical
// service budget: whatever the rest of the house is not using, minus a
// safety buffer, goes to the charger.
type LimitController struct {
	config  models.EVSEConfig
	charger Charger
	load    LoadProvider
	done    chan bool
}

func NewLimitController(config models.EVSEConfig, charger Charger, load LoadProvider) *LimitController {
	return &LimitController{
		config:  config,
		charger: charger,
		load:    load,
		done:    make(chan bool),
	}
}

func (c *LimitController) Start() {
	interval := c.config.Automation.Interval.Duration
	if interval == 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-c.done:
				ticker.Stop()
				return
			case <-ticker.C:
				c.evaluateChargeLimit()
			}
		}
	}()
}

func (c *LimitController) Stop() {
	c.done <- true
}

func (c *LimitController) evaluateChargeLimit() {
	houseLoad, ok := c.load.HouseLoad()
	if !ok {
		return
	}
	status, err := c.charger.GetStatus()
	if err != nil {
		log.Printf("Error getting status for charge limit evaluation: %s", err)
		return
	}
	currentLimit, err := c.charger.GetChargeLimit()
	if err != nil {
		log.Printf("Error getting charge limit %s:", err)
		return
	}
	if metrics.StatsEnabled {
		metrics.SendGaugeMetric("openevse_limit", []string{}, float64(currentLimit))
	}
	chargeCurrent := status.ChargingCurrent()
	otherLoad := houseLoad - chargeCurrent
	availableLoad := c.config.Automation.ServiceLimit - otherLoad
	newLimit := int(math.Floor(availableLoad - float64(c.config.MinCurrentBuffer)))
	if newLimit < 6 {
		newLimit = 6
	}
	if newLimit > c.config.MaxChargeCurrent {
		newLimit = c.config.MaxChargeCurrent
	}
	if math.Abs(float64(currentLimit-newLimit)) > 2 {
		log.Printf("Got current charge limit of %v, house load %v, service limit %v and available load %v, setting charge limit to %v",
			currentLimit, houseLoad, c.config.Automation.ServiceLimit, availableLoad, newLimit)
		if err := c.charger.SetChargeLimit(newLimit); err != nil {
			log.Printf("Error setting charge limit setting %s", err)
		}
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jgulick48/hc"
	"github.com/jgulick48/hc/accessory"
	"github.com/mitchellh/panicwrap"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgulick48/openevse-bridge/internal/automation"
	"github.com/jgulick48/openevse-bridge/internal/bridge"
	"github.com/jgulick48/openevse-bridge/internal/coordinator"
	"github.com/jgulick48/openevse-bridge/internal/hass"
	"github.com/jgulick48/openevse-bridge/internal/metrics"
	"github.com/jgulick48/openevse-bridge/internal/models"
	"github.com/jgulick48/openevse-bridge/internal/openevse"
	"github.com/jgulick48/openevse-bridge/internal/rapi"
)

func main() {
	exitStatus, err := panicwrap.BasicWrap(panicHandler)
	if err != nil {
		panic(err)
	}
	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	var configLocation string
	flag.StringVar(&configLocation, "config", "./config.json", "Location of the config file.")
	flag.Parse()
	config := models.LoadClientConfig(configLocation)
	metrics.Configure(config.StatsServer, config.EVSEConfig.Name)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	evseClient := openevse.NewClient(config.EVSEConfig, httpClient)
	var rapiClient *rapi.Client
	if config.EVSEConfig.SerialDevice != "" {
		baud := config.EVSEConfig.SerialBaud
		if baud == 0 {
			baud = 115200
		}
		rapiClient, err = rapi.NewClient(config.EVSEConfig.SerialDevice, baud)
		if err != nil {
			log.Printf("Unable to open serial console %s, using HTTP for commands: %s", config.EVSEConfig.SerialDevice, err)
		} else {
			evseClient.UseSender(rapiClient)
		}
	}

	wifiVersion, firmware, err := evseClient.GetFirmware()
	if err != nil {
		log.Printf("Problem retrieving firmware data: %s", err)
	} else {
		log.Printf("Connected to %s running firmware %s with wifi version %s", config.EVSEConfig.Name, firmware, wifiVersion)
	}

	coord := coordinator.New(config.EVSEConfig.Name, config.EVSEConfig.PollInterval.Duration, evseClient.GetStatus)
	coord.Subscribe(bridge.NewMetricsPublisher(config.EVSEConfig.Name))

	hassClient := hass.NewClient(config.MQTTConfig, hass.DeviceInfo{
		Name:       config.EVSEConfig.Name,
		Identifier: config.EVSEConfig.Name,
		Model:      fmt.Sprintf("Wifi version %s", wifiVersion),
		SWVersion:  firmware,
	}, evseClient, config.EVSEConfig.MaxChargeCurrent, config.EVSEConfig.Automation.LoadTopic)
	if hassClient.IsEnabled() {
		hassClient.Connect()
		coord.Subscribe(hassClient.PublishState)
	}

	var limitController *automation.LimitController
	if config.EVSEConfig.Automation.Enabled && hassClient.IsEnabled() {
		limitController = automation.NewLimitController(config.EVSEConfig, evseClient, hassClient)
		limitController.Start()
	}

	if config.MetricsAddress != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Printf("Serving metrics at %s", config.MetricsAddress)
			if err := http.ListenAndServe(config.MetricsAddress, nil); err != nil {
				log.Printf("Error serving metrics endpoint: %s", err)
			}
		}()
	}

	bridgeName := config.BridgeName
	if bridgeName == "" {
		bridgeName = config.EVSEConfig.Name
	}
	bridgeAccessory := accessory.NewBridge(accessory.Info{
		Name: bridgeName,
		ID:   1,
	})
	bridgeClient := bridge.NewClient(config, evseClient, coord, firmware)
	accessories := bridgeClient.GetAccessories()
	coord.Start()

	hcConfig := hc.Config{
		Pin:  config.PIN,
		Port: config.Port,
	}
	t, err := hc.NewIPTransport(hcConfig, bridgeAccessory.Accessory, accessories...)
	if err != nil {
		log.Panic(err)
	}

	hc.OnTermination(func() {
		coord.Stop()
		if limitController != nil {
			limitController.Stop()
		}
		hassClient.Close()
		if rapiClient != nil {
			rapiClient.Close()
		}
		<-t.Stop()
	})
	t.Start()
}

func panicHandler(output string) {
	log.Printf("The bridge panicked:\n\n%s", output)
	os.Exit(1)
}

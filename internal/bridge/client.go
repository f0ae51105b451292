package bridge

import (
	"encoding/json"
	"io/ioutil"
	"log"

	"github.com/jgulick48/hc/accessory"

	"github.com/jgulick48/openevse-bridge/internal/coordinator"
	"github.com/jgulick48/openevse-bridge/internal/models"
)

// Commander is the slice of the charger client the HomeKit switch needs.
type Commander interface {
	Enable() error
	Sleep() error
}

type Client interface {
	GetAccessories() []*accessory.Accessory
}

type client struct {
	config    models.Config
	commander Commander
	coord     *coordinator.Coordinator
	firmware  string
}

func NewClient(config models.Config, commander Commander, coord *coordinator.Coordinator, firmware string) Client {
	return &client{
		config:    config,
		commander: commander,
		coord:     coord,
		firmware:  firmware,
	}
}

// GetAccessories builds the HomeKit accessories for the charger and wires
// them to coordinator updates. Accessory IDs are persisted in items.json
// so HomeKit identities survive restarts.
func (c *client) GetAccessories() []*accessory.Accessory {
	var itemIDs map[string]uint64
	itemConfigFile, err := ioutil.ReadFile("./items.json")
	if err != nil {
		log.Printf("No items file found. Making new IDs")
		itemIDs = make(map[string]uint64)
	} else if err = json.Unmarshal(itemConfigFile, &itemIDs); err != nil {
		log.Printf("Invalid items file format. Starting new.")
		itemIDs = make(map[string]uint64)
	}
	maxID := uint64(1)
	for _, id := range itemIDs {
		if maxID < id {
			maxID = id
		}
	}
	nextID := func(key string) uint64 {
		id, ok := itemIDs[key]
		if !ok {
			maxID++
			id = maxID
			itemIDs[key] = id
		}
		return id
	}
	name := c.config.EVSEConfig.Name
	accessories := make([]*accessory.Accessory, 0)

	outlet := accessory.NewOutlet(accessory.Info{
		Name:             name,
		ID:               nextID("charger"),
		Manufacturer:     "OpenEVSE",
		FirmwareRevision: c.firmware,
	})
	accessories = append(accessories, outlet.Accessory)

	enabledSwitch := accessory.NewSwitch(accessory.Info{
		Name: name + " Charging Enabled",
		ID:   nextID("enabled"),
	})
	enabledSwitch.Switch.On.OnValueRemoteUpdate(func(on bool) {
		var err error
		if on {
			err = c.commander.Enable()
		} else {
			err = c.commander.Sleep()
		}
		if err != nil {
			log.Printf("Error changing charging enabled state: %s", err)
		}
	})
	accessories = append(accessories, enabledSwitch.Accessory)

	thermometer := accessory.NewTemperatureSensor(accessory.Info{
		Name: name + " Temperature",
		ID:   nextID("temperature"),
	}, 20, -50, 100, 0.1)
	accessories = append(accessories, thermometer.Accessory)

	c.coord.Subscribe(func(readings map[string]interface{}) {
		if status, ok := readings["status"].(string); ok {
			outlet.Outlet.On.SetValue(status == "charging")
			enabledSwitch.Switch.On.SetValue(status != "sleeping" && status != "disabled")
		}
		if connected, ok := readings["vehicle_connected"].(bool); ok {
			outlet.Outlet.OutletInUse.SetValue(connected)
		}
		if temp, ok := readings["ambient_temperature"].(float64); ok {
			thermometer.TempSensor.CurrentTemperature.SetValue(temp)
		}
	})

	itemConfigFile, err = json.Marshal(itemIDs)
	if err != nil {
		log.Printf("Error trying to create items file: %s", err)
	} else if err = ioutil.WriteFile("./items.json", itemConfigFile, 0644); err != nil {
		log.Printf("Error trying to save items file: %s", err)
	}
	return accessories
}

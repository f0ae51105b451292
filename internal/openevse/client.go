package openevse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jgulick48/openevse-bridge/internal/models"
)

// ErrInvalidValue is returned when the controller rejects a command value
// with the $NK^21 reply.
var ErrInvalidValue = errors.New("openevse: invalid value")

// ErrCommandFailed is returned when the reply echoes a different command
// than the one that was sent.
var ErrCommandFailed = errors.New("openevse: command failed")

// CommandSender issues one raw RAPI command and returns the controller's
// reply. The HTTP client implements it through the wifi module's /r
// endpoint; the rapi package implements it over a directly attached
// serial console.
type CommandSender interface {
	SendCommand(command string) (CommandResult, error)
}

type Client struct {
	config     models.EVSEConfig
	httpClient *http.Client
	sender     CommandSender
}

func NewClient(config models.EVSEConfig, httpClient *http.Client) *Client {
	client := Client{
		config:     config,
		httpClient: httpClient,
	}
	client.sender = &client
	return &client
}

// UseSender swaps the RAPI transport, keeping status polling on HTTP.
func (c *Client) UseSender(sender CommandSender) {
	c.sender = sender
}

func (c *Client) GetStatus() (Status, error) {
	var status Status
	err := c.getJSON(fmt.Sprintf("%s/status", c.config.Address), &status)
	return status, err
}

func (c *Client) GetConfig() (DeviceConfig, error) {
	var config DeviceConfig
	err := c.getJSON(fmt.Sprintf("%s/config", c.config.Address), &config)
	return config, err
}

// GetFirmware returns the wifi module and controller firmware versions.
// A controller that does not serve /config still answers $GV.
func (c *Client) GetFirmware() (string, string, error) {
	config, err := c.GetConfig()
	if err == nil {
		return config.Version, config.Firmware, nil
	}
	ret, cmdErr := c.Command("$GV")
	if cmdErr != nil {
		return "", "", err
	}
	fields := strings.Fields(ret)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("did not get expected result got %s", ret)
	}
	return "", fields[1], nil
}

// SendCommand is the HTTP RAPI transport.
func (c *Client) SendCommand(command string) (CommandResult, error) {
	query := url.Values{}
	query.Set("json", "1")
	query.Set("rapi", command)
	var response CommandResult
	err := c.getJSON(fmt.Sprintf("%s/r?%s", c.config.Address, query.Encode()), &response)
	return response, err
}

// Command sends a RAPI command and applies the reply semantics: a $NK^21
// reply means the value was rejected and a mismatched echo means the
// command itself failed.
func (c *Client) Command(command string) (string, error) {
	result, err := c.sender.SendCommand(command)
	if err != nil {
		return "", err
	}
	if result.CMD != command {
		return "", ErrCommandFailed
	}
	if result.RET == "$NK^21" {
		return "", ErrInvalidValue
	}
	return result.RET, nil
}

// GetState reads the controller state code via $GS.
func (c *Client) GetState() (int, error) {
	ret, err := c.Command("$GS")
	if err != nil {
		return StateUnknown, err
	}
	fields := strings.Fields(ret)
	if len(fields) < 2 {
		return StateUnknown, fmt.Errorf("did not get expected result got %s", ret)
	}
	return strconv.Atoi(fields[1])
}

// GetChargeLimit reads the configured charge current limit via $GE.
func (c *Client) GetChargeLimit() (int, error) {
	ret, err := c.Command("$GE")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(ret)
	if len(fields) == 3 {
		return strconv.Atoi(fields[1])
	}
	return 0, fmt.Errorf("did not get expected result got %s", ret)
}

// SetChargeLimit sets the charge current limit, clamped to the controller
// minimum of 6A and the configured maximum.
func (c *Client) SetChargeLimit(limit int) error {
	if limit < 6 {
		limit = 6
	}
	if limit > c.config.MaxChargeCurrent {
		limit = c.config.MaxChargeCurrent
	}
	log.Printf("Setting new charge current limit to %v", limit)
	ret, err := c.Command(fmt.Sprintf("$SC %v", limit))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(ret, "$OK") {
		return fmt.Errorf("did not get expected result got %s", ret)
	}
	return nil
}

// Enable wakes the charger from sleeping or disabled state.
func (c *Client) Enable() error {
	_, err := c.Command("$FE")
	return err
}

// Sleep pauses charging until the next enable.
func (c *Client) Sleep() error {
	_, err := c.Command("$FS")
	return err
}

// Disable turns the charger off until the next enable.
func (c *Client) Disable() error {
	_, err := c.Command("$FD")
	return err
}

func (c *Client) getJSON(address string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, address, nil)
	if err != nil {
		log.Printf("Error creating request for openEVSE: %s", err)
		return err
	}
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error making request for item from openEVSE: %s", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("Invalid response from openEVSE. Got %v expecting 200", resp.StatusCode)
		return fmt.Errorf("unexpected status code %v from openEVSE", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		log.Printf("Unable to decode message from openEVSE: %s", err)
		return err
	}
	return nil
}

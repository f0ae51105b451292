package openevse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jgulick48/openevse-bridge/internal/models"
)

func newTestServer(t *testing.T, rapiReplies map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			fmt.Fprint(w, `{"state": 3, "amp": 16400, "pilot": 24, "voltage": 238000, "wattsec": 3600, "watthour": 100}`)
		case "/config":
			fmt.Fprint(w, `{"firmware": "7.1.3", "protocol": "5.1.0", "version": "4.1.2", "service": 2}`)
		case "/r":
			command := r.URL.Query().Get("rapi")
			assert.Equal(t, "1", r.URL.Query().Get("json"))
			ret, ok := rapiReplies[command]
			if !ok {
				ret = "$NK^21"
			}
			_ = json.NewEncoder(w).Encode(CommandResult{CMD: command, RET: ret})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(models.EVSEConfig{
		Address:          server.URL,
		Name:             "openevse",
		MaxChargeCurrent: 40,
	}, server.Client())
}

func Test_GetStatus(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()
	client := newTestClient(server)
	status, err := client.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, StateCharging, status.State)
	assert.Equal(t, 16.4, status.ChargingCurrent())
}

func Test_GetStatusBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := newTestClient(server)
	_, err := client.GetStatus()
	assert.Error(t, err)
}

func Test_GetFirmware(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()
	client := newTestClient(server)
	wifi, firmware, err := client.GetFirmware()
	assert.NoError(t, err)
	assert.Equal(t, "4.1.2", wifi)
	assert.Equal(t, "7.1.3", firmware)
}

func Test_GetFirmwareFallsBackToRAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(CommandResult{CMD: r.URL.Query().Get("rapi"), RET: "$OK 7.1.3 5.1.0^23"})
	}))
	defer server.Close()
	client := newTestClient(server)
	wifi, firmware, err := client.GetFirmware()
	assert.NoError(t, err)
	assert.Equal(t, "", wifi)
	assert.Equal(t, "7.1.3", firmware)
}

func Test_GetChargeLimit(t *testing.T) {
	server := newTestServer(t, map[string]string{"$GE": "$OK 24 0^2C"})
	defer server.Close()
	client := newTestClient(server)
	limit, err := client.GetChargeLimit()
	assert.NoError(t, err)
	assert.Equal(t, 24, limit)
}

func Test_SetChargeLimitClamps(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"$SC 40": "$OK^2B",
		"$SC 6":  "$OK^2B",
	})
	defer server.Close()
	client := newTestClient(server)
	// Above the configured maximum.
	assert.NoError(t, client.SetChargeLimit(50))
	// Below the controller minimum.
	assert.NoError(t, client.SetChargeLimit(2))
}

func Test_CommandInvalidValue(t *testing.T) {
	server := newTestServer(t, map[string]string{"$SC 80": "$NK^21"})
	defer server.Close()
	client := newTestClient(server)
	_, err := client.Command("$SC 80")
	assert.Equal(t, ErrInvalidValue, err)
}

func Test_CommandFailedOnMismatchedEcho(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CommandResult{CMD: "$GS", RET: "$OK 1 0^hh"})
	}))
	defer server.Close()
	client := newTestClient(server)
	_, err := client.Command("$GE")
	assert.Equal(t, ErrCommandFailed, err)
}

func Test_GetState(t *testing.T) {
	server := newTestServer(t, map[string]string{"$GS": "$OK 254 1024^hh"})
	defer server.Close()
	client := newTestClient(server)
	state, err := client.GetState()
	assert.NoError(t, err)
	assert.Equal(t, StateSleeping, state)
}

func Test_BasicAuthHeader(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		sawAuth = ok && username == "admin" && password == "openevse"
		fmt.Fprint(w, `{"state": 1}`)
	}))
	defer server.Close()
	client := NewClient(models.EVSEConfig{
		Address:  server.URL,
		Username: "admin",
		Password: "openevse",
	}, server.Client())
	_, err := client.GetStatus()
	assert.NoError(t, err)
	assert.True(t, sawAuth)
}

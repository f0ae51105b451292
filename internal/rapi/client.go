package rapi

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/jgulick48/openevse-bridge/internal/openevse"
)

var errReadTimeout = errors.New("rapi: read timed out")

// Client speaks RAPI over the controller's TTL serial console. It
// satisfies openevse.CommandSender so the bridge can drive a directly
// attached controller the same way it drives the wifi module.
type Client struct {
	mux      sync.Mutex
	port     *serial.Port
	buf      bytes.Buffer
	readBuf  []byte
	stateMux sync.RWMutex
	state    int
	hasState bool
}

func NewClient(device string, baud int) (*Client, error) {
	sconf := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second * 5,
	}
	port, err := serial.OpenPort(sconf)
	if err != nil {
		return nil, err
	}
	log.Printf("Opened RAPI serial console on %s", device)
	return &Client{
		port:    port,
		readBuf: make([]byte, 256),
	}, nil
}

func (c *Client) Close() error {
	return c.port.Close()
}

// SendCommand writes one checksummed RAPI command and waits for the $OK
// or $NK reply, folding any asynchronous $ST notifications that arrive in
// between into the last known state.
func (c *Client) SendCommand(command string) (openevse.CommandResult, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	var result openevse.CommandResult
	_, err := c.port.Write([]byte(frame(command) + "\r"))
	if err != nil {
		log.Printf("Error writing command to RAPI console: %s", err)
		return result, err
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, err := c.readLine()
		if err == errReadTimeout {
			continue
		}
		if err != nil {
			return result, err
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "$ST") {
			c.recordState(line)
			continue
		}
		if strings.HasPrefix(line, "$OK") || strings.HasPrefix(line, "$NK") {
			return openevse.CommandResult{CMD: command, RET: line}, nil
		}
	}
	return result, fmt.Errorf("rapi: no reply to %s", command)
}

// LastState returns the most recent state code seen in an asynchronous
// $ST notification.
func (c *Client) LastState() (int, bool) {
	c.stateMux.RLock()
	defer c.stateMux.RUnlock()
	return c.state, c.hasState
}

func (c *Client) recordState(line string) {
	fields := strings.Fields(stripChecksum(line))
	if len(fields) != 2 {
		return
	}
	code, err := strconv.ParseInt(fields[1], 16, 32)
	if err != nil {
		log.Printf("Got invalid state notification %s", line)
		return
	}
	c.stateMux.Lock()
	c.state = int(code)
	c.hasState = true
	c.stateMux.Unlock()
}

func (c *Client) readLine() (string, error) {
	for {
		if line, ok := c.takeLine(); ok {
			return line, nil
		}
		n, err := c.port.Read(c.readBuf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", errReadTimeout
		}
		c.buf.Write(c.readBuf[:n])
	}
}

func (c *Client) takeLine() (string, bool) {
	data := c.buf.Bytes()
	idx := bytes.IndexAny(data, "\r\n")
	if idx < 0 {
		return "", false
	}
	line := strings.TrimSpace(string(data[:idx]))
	c.buf.Next(idx + 1)
	return line, true
}

// frame appends the XOR checksum RAPI expects, e.g. "$GE" -> "$GE^26".
func frame(command string) string {
	sum := byte(0)
	for i := 0; i < len(command); i++ {
		sum ^= command[i]
	}
	return fmt.Sprintf("%s^%02X", command, sum)
}

func stripChecksum(line string) string {
	if idx := strings.LastIndex(line, "^"); idx >= 0 {
		return line[:idx]
	}
	return line
}

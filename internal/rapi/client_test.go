package rapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jgulick48/openevse-bridge/internal/openevse"
)

func Test_Frame(t *testing.T) {
	assert.Equal(t, "$GE^26", frame("$GE"))
	assert.Equal(t, "$GS^30", frame("$GS"))
	assert.Equal(t, "$FE^27", frame("$FE"))
}

func Test_StripChecksum(t *testing.T) {
	assert.Equal(t, "$OK 24 0", stripChecksum("$OK 24 0^2C"))
	assert.Equal(t, "$OK", stripChecksum("$OK"))
}

func Test_RecordState(t *testing.T) {
	client := &Client{}
	_, ok := client.LastState()
	assert.False(t, ok)

	client.recordState("$ST 03^be")
	state, ok := client.LastState()
	assert.True(t, ok)
	assert.Equal(t, openevse.StateCharging, state)

	client.recordState("$ST fe^hh")
	state, _ = client.LastState()
	assert.Equal(t, openevse.StateSleeping, state)

	// A malformed notification keeps the previous state.
	client.recordState("$ST garbage^00")
	state, _ = client.LastState()
	assert.Equal(t, openevse.StateSleeping, state)
}

func Test_TakeLine(t *testing.T) {
	client := &Client{}
	client.buf.WriteString("$ST 01^bc\r$OK 24 0^2C\rpartial")

	line, ok := client.takeLine()
	assert.True(t, ok)
	assert.Equal(t, "$ST 01^bc", line)

	line, ok = client.takeLine()
	assert.True(t, ok)
	assert.Equal(t, "$OK 24 0^2C", line)

	_, ok = client.takeLine()
	assert.False(t, ok)
}

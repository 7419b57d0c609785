package control

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/rawplay/internal/config"
	"github.com/e7canasta/rawplay/internal/mqttconn/mqtttest"
	"github.com/e7canasta/rawplay/modules/clip"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("instance_id: ctl\nmqtt:\n  broker: tcp://localhost:1883\n"))
	require.NoError(t, err)
	return cfg
}

func TestHandleCommand(t *testing.T) {
	var (
		played   bool
		seekedTo uint32
		opened   string
		exposure float64
	)
	h := NewHandler(testConfig(t), mqtttest.NewClient(), Callbacks{
		OnPlay:  func() error { played = true; return nil },
		OnPause: func() error { return errors.New("playback: invalid transition") },
		OnSeek:  func(n uint32) error { seekedTo = n; return nil },
		OnOpen:  func(p string) error { opened = p; return nil },
		OnSetRawParameters: func(p clip.RawParameters) error {
			exposure = *p.Exposure
			return nil
		},
		OnGetStatus: func() interface{} { return map[string]string{"state": "stopped"} },
	})

	resp := h.handleCommand(Command{ID: "1", Command: "play"})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "1", resp.ID)
	assert.True(t, played)

	resp = h.handleCommand(Command{Command: "pause"})
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "invalid transition")

	frame := uint32(42)
	resp = h.handleCommand(Command{Command: "seek", Frame: &frame})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, uint32(42), seekedTo)

	resp = h.handleCommand(Command{Command: "seek"})
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "frame")

	resp = h.handleCommand(Command{Command: "open", Path: "/clips/B"})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "/clips/B", opened)

	ev := 1.25
	resp = h.handleCommand(Command{Command: "set_raw_parameters", RawParameters: &clip.RawParameters{Exposure: &ev}})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1.25, exposure)

	resp = h.handleCommand(Command{Command: "get_status"})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, map[string]string{"state": "stopped"}, resp.Data)

	resp = h.handleCommand(Command{Command: "next_clip"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "next_clip not implemented", resp.Error)

	resp = h.handleCommand(Command{Command: "rewind"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "unknown command: rewind", resp.Error)
}

func TestCommandsOverMQTT(t *testing.T) {
	client := mqtttest.NewClient()
	cfg := testConfig(t)

	seeks := make(chan uint32, 1)
	h := NewHandler(cfg, client, Callbacks{
		OnSeek: func(n uint32) error { seeks <- n; return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	require.True(t, client.Subscribed("rawplay/control/ctl"))

	require.True(t, client.Deliver("rawplay/control/ctl", []byte(`{"id":"a7","command":"seek","frame":120}`)))
	select {
	case n := <-seeks:
		assert.Equal(t, uint32(120), n)
	case <-time.After(time.Second):
		t.Fatal("seek callback not called")
	}

	msgs := client.WaitPublished(1, time.Second)
	require.Len(t, msgs, 1)
	assert.Equal(t, "rawplay/control/ctl/response", msgs[0].Topic)

	var resp Response
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &resp))
	assert.Equal(t, "a7", resp.ID)
	assert.Equal(t, "seek", resp.CommandAck)
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())
	assert.False(t, client.Subscribed("rawplay/control/ctl"))
}

func TestInvalidJSONGetsErrorResponse(t *testing.T) {
	client := mqtttest.NewClient()
	h := NewHandler(testConfig(t), client, Callbacks{})
	require.NoError(t, h.Start(context.Background()))
	defer h.Stop()

	client.Deliver("rawplay/control/ctl", []byte("{not json"))

	msgs := client.WaitPublished(1, time.Second)
	require.Len(t, msgs, 1)
	var resp Response
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "invalid JSON", resp.Error)
}

package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, hub.Connected, 2*time.Second, 5*time.Millisecond)
	return conn
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	require.ErrorIs(t, hub.Publish(Event{Kind: KindStateChanged}), ErrNoSubscribers)
	require.False(t, hub.Connected())
}

func TestHubBroadcastsJSONEnvelope(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub)

	require.NoError(t, hub.Publish(Event{
		Kind:    KindAudioDataAvailable,
		At:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Payload: AudioDataAvailable{SessionID: "s1", Mode: "chat", Bytes: 44, DurationMS: 2500},
	}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Event   string `json:"event"`
		Payload struct {
			SessionID  string `json:"sessionId"`
			Mode       string `json:"mode"`
			Bytes      int    `json:"bytes"`
			DurationMS int64  `json:"durationMs"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "audio_data_available", got.Event)
	require.Equal(t, "s1", got.Payload.SessionID)
	require.Equal(t, "chat", got.Payload.Mode)
	require.Equal(t, 44, got.Payload.Bytes)
	require.Equal(t, int64(2500), got.Payload.DurationMS)
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !hub.Connected() }, 2*time.Second, 5*time.Millisecond)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub)

	hub.Close()
	require.Zero(t, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

type tick struct {
	Type string `json:"type"`
	N    int    `json:"n"`
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.SetGreeting(func() any { return tick{Type: "hello"} })

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	a := dialHub(t, ts.URL)
	b := dialHub(t, ts.URL)

	var got tick
	readJSON(t, a, &got)
	assert.Equal(t, "hello", got.Type)
	readJSON(t, b, &got)
	assert.Equal(t, "hello", got.Type)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(tick{Type: "frame", N: 7})

	for _, conn := range []*websocket.Conn{a, b} {
		readJSON(t, conn, &got)
		assert.Equal(t, tick{Type: "frame", N: 7}, got)
	}
}

func TestHub_Disconnect(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dialHub(t, ts.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(tick{Type: "frame"})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dialHub(t, ts.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	late := dialHub(t, ts.URL)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err, "closed hub drops new clients")
	assert.Zero(t, hub.Clients())
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	dialHub(t, ts.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*10; i++ {
			hub.Broadcast(tick{Type: "frame", N: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a client that never reads")
	}
}

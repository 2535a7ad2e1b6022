package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
)

const testOrigin = "http://localhost:3000"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub([]string{testOrigin}, testLogger())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func readSignal(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	kind, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	return string(payload)
}

func TestHubRejectsForeignOrigins(t *testing.T) {
	hub, url := startHub(t)

	for _, origin := range []string{"", "http://evil.example", "http://localhost:3001"} {
		_, resp, err := dial(t, url, origin)
		require.Error(t, err, "origin %q must be rejected", origin)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHubBroadcastsSignals(t *testing.T) {
	hub, url := startHub(t)

	first, _, err := dial(t, url, testOrigin)
	require.NoError(t, err)
	second, _, err := dial(t, url, testOrigin)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, time.Millisecond)

	hub.Notify(context.Background(), model.SignalPaymentComplete)
	hub.Broadcast(model.SignalPaymentFailed)

	for _, conn := range []*websocket.Conn{first, second} {
		assert.Equal(t, "payment_complete", readSignal(t, conn))
		assert.Equal(t, "payment_failed", readSignal(t, conn))
	}
}

func TestHubForgetsDisconnectedSubscribers(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := dial(t, url, testOrigin)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, time.Millisecond)

	hub.Broadcast(model.SignalPaymentComplete)
}

func TestHubCloseDisconnectsAndRefuses(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := dial(t, url, testOrigin)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	late, _, err := dial(t, url, testOrigin)
	if err == nil {
		require.NoError(t, late.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, err = late.ReadMessage()
		require.Error(t, err, "hub must not keep subscribers after close")
	}
	assert.Equal(t, 0, hub.Subscribers())
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub([]string{"http://a.local", "http://b.local"}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/ws/transactions", nil)
	assert.False(t, hub.CheckOrigin(req))

	req.Header.Set("Origin", "http://b.local")
	assert.True(t, hub.CheckOrigin(req))

	req.Header.Set("Origin", "http://c.local")
	assert.False(t, hub.CheckOrigin(req))
}

func TestCheckOriginFollowsCORSOriginRules(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"trailing slash in config", []string{"http://portal.local/"}, "http://portal.local", true},
		{"mixed case in config", []string{"HTTP://Portal.Local"}, "http://portal.local", true},
		{"mixed case header", []string{"http://portal.local"}, "http://Portal.Local", true},
		{"wildcard", []string{config.AnyOrigin}, "http://anything.example", true},
		{"wildcard still needs an origin", []string{config.AnyOrigin}, "", false},
		{"scheme-less config entry ignored", []string{"portal.local"}, "http://portal.local", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(tt.allowed, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/ws/transactions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, hub.CheckOrigin(req))
		})
	}
}

func TestHubAcceptsAnyOriginWithWildcard(t *testing.T) {
	hub := NewHub([]string{config.AnyOrigin}, testLogger())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	conn, _, err := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"), "http://portal.example")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast(model.SignalPaymentComplete)
	assert.Equal(t, "payment_complete", readSignal(t, conn))
}

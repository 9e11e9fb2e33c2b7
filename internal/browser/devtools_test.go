package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"threadscrape/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestDiscoverWebsocket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json/version", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Browser": "HeadlessChrome/126.0.6478.126",
			"webSocketDebuggerUrl": "ws://0.0.0.0:9222/devtools/browser/5b5e8a4c"
		}`))
	}))
	defer server.Close()

	ws, err := discoverWebsocket(context.Background(), server.URL, telemetry.NewRecorder())
	require.NoError(t, err)

	host := strings.TrimPrefix(server.URL, "http://")
	require.Equal(t, "ws://"+host+"/devtools/browser/5b5e8a4c", ws)
}

func TestDiscoverWebsocketPassthrough(t *testing.T) {
	ws, err := discoverWebsocket(context.Background(), "ws://127.0.0.1:9222/devtools/browser/x", telemetry.NewRecorder())
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", ws)

	_, err = discoverWebsocket(context.Background(), "ftp://127.0.0.1", telemetry.NewRecorder())
	require.Error(t, err)
}

func TestDiscoverWebsocketMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Browser": "HeadlessChrome"}`))
	}))
	defer server.Close()

	rec := telemetry.NewRecorder()
	_, err := discoverWebsocket(context.Background(), server.URL, rec)
	require.Error(t, err)
	require.Len(t, rec.Filter(telemetry.KindBroken, report_session_discover), 1)
}

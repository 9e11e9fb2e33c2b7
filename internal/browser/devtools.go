package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"threadscrape/internal/components/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
)

const report_session_discover = "session.discover"

type versionInfo struct {
	Browser              string `json:"Browser"`
	WebSocketDebuggerUrl string `json:"webSocketDebuggerUrl"`
}

// discoverWebsocket resolves the browser level DevTools websocket of a
// remote browser. ws:// and wss:// urls are returned as is, http(s) urls
// are queried at /json/version.
//
// the host of the returned websocket is replaced with the host that was
// dialed since browsers running in containers report their own address.
func discoverWebsocket(ctx context.Context, remote string, tel telemetry.API) (string, error) {
	parsed, err := url.Parse(remote)
	if err != nil {
		return "", fmt.Errorf("parse remote url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
		return remote, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported remote url scheme %q", parsed.Scheme)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(remote, "/"))
	client.SetTimeout(time.Second * 10)
	telemetry.InstrumentResty(client, tel)

	var info versionInfo
	res, err := client.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/json/version")
	if err != nil {
		tel.ReportBroken(report_session_discover, err, remote)
		return "", fmt.Errorf("query devtools version: %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("query devtools version: unexpected status %s", res.Status())
		tel.ReportBroken(report_session_discover, err, remote)
		return "", err
	}
	if info.WebSocketDebuggerUrl == "" {
		err := fmt.Errorf("devtools version of %s has no websocket url", remote)
		tel.ReportBroken(report_session_discover, err)
		return "", err
	}

	ws, err := url.Parse(info.WebSocketDebuggerUrl)
	if err != nil {
		return "", fmt.Errorf("parse websocket url: %w", err)
	}
	ws.Host = parsed.Host
	if parsed.Scheme == "https" {
		ws.Scheme = "wss"
	}
	tel.ReportDebug("discovered devtools websocket", info.Browser, ws.String())
	return ws.String(), nil
}

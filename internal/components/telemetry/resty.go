package telemetry

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_http_response = "http.response"
	report_http_error    = "http.error"
)

// InstrumentResty reports every exchange made by the client, responses are
// debug reports and transport failures are broken reports.
func InstrumentResty(client *resty.Client, tel API) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		tel.ReportDebug(
			report_http_response,
			res.Request.Method,
			res.Request.URL,
			res.Status(),
			res.Time().String(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		var elapsed time.Duration
		if !req.Time.IsZero() {
			elapsed = time.Since(req.Time)
		}
		tel.ReportBroken(report_http_error, err, req.Method, req.URL, elapsed.String())
	})
}

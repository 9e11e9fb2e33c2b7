package telemetry

import (
	"log/slog"
	"strconv"
)

// SlogAPI implements API on top of a slog.Logger, the zero value logs to
// slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// paramsGroup groups report params under "params" keyed by their position,
// errors are flattened to their message.
func paramsGroup(params []any) slog.Attr {
	attrs := make([]any, 0, len(params))
	for i, p := range params {
		if err, ok := p.(error); ok {
			p = err.Error()
		}
		attrs = append(attrs, slog.Any(strconv.Itoa(i), p))
	}
	return slog.Group("params", attrs...)
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().Error("broken component", "id", id, paramsGroup(params))
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().Warn("warning", "id", id, paramsGroup(params))
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	if len(params) == 0 {
		s.logger().Debug(message)
		return
	}
	s.logger().Debug(message, paramsGroup(params))
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Info("count", "id", id, "n", count)
}

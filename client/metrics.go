package client

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskboard/client"

// callMetrics captures timing and outcome of one repository call and emits
// both a span and a single structured log event when the call finishes.
type callMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time
	method string
	route  string
}

func newCallMetrics(ctx context.Context, logger *log.Logger, method, route string) (*callMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route)
	return &callMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		method: method,
		route:  route,
	}, ctx
}

func (m *callMetrics) Done(status int, err error) {
	if m == nil {
		return
	}
	totalMs := durationToMillis(time.Since(m.start))

	m.span.SetAttributes(
		attribute.String("http.request.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.response.status_code", status),
		attribute.Float64("taskboard.client.total_ms", totalMs),
	)
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"method":   m.method,
		"route":    m.route,
		"status":   status,
		"total_ms": totalMs,
	}
	if err != nil {
		fields["error"] = err.Error()
		m.logger.WithFields(fields).Warn("taskservice.request")
		return
	}
	m.logger.WithFields(fields).Info("taskservice.request")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

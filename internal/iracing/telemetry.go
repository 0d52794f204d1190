package iracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("iracing")
var meter = otel.Meter("iracing")

var requestCounter, _ = meter.Int64Counter(
	"iracing.requests",
	metric.WithDescription("api requests made, link resolutions included"),
)
var memberCounter, _ = meter.Int64Counter(
	"iracing.members",
	metric.WithDescription("members retrieved"),
)

func endpointAttr(endpoint string) metric.AddOption {
	return metric.WithAttributes(attribute.String("endpoint", endpoint))
}

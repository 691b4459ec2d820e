// Package observability provides tracer construction for service
// components. Only the OpenTelemetry API is wired here; exporter and
// sampler setup belong to the deployment, not this service.
package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationPrefix = "github.com/skillsenselab/meetscribe/"

// Tracer returns a named tracer for a service component.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

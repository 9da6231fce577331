package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Sound    *metrics.SoundMetrics
}

// NewMetrics creates a registry with the sound collector and the Go
// runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	soundMetrics, err := metrics.NewSoundMetrics(registry)
	if err != nil {
		return nil, errors.New(err).
			Component("observability").
			Category(errors.CategoryConfiguration).
			Context("collector", "sound").
			Build()
	}

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, errors.New(err).Component("observability").Category(errors.CategoryConfiguration).Build()
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, errors.New(err).Component("observability").Category(errors.CategoryConfiguration).Build()
	}

	return &Metrics{registry: registry, Sound: soundMetrics}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      handlerErrorLog{},
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

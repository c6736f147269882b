package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus builds the service registry. Store collectors passed as extra, such
// as the pgx pool, carry a service label.
func SetupPrometheus(serviceName string, extra ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	storesRegisterer := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, promRegistry)
	for _, c := range extra {
		storesRegisterer.MustRegister(c)
	}

	return promRegistry
}

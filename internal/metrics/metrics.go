package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Recalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offers",
		Name:      "recalculations_total",
		Help:      "Offer recalculations by source.",
	}, []string{"source"})

	CatalogFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offers",
		Name:      "catalog_fetches_total",
		Help:      "Operation catalog fetches by result.",
	}, []string{"result"})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		Recalculations,
		CatalogFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

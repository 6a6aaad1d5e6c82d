package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

var (
	openHandles = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kv",
		Name:      "open_handles",
		Help:      "Number of live database handles by mode.",
	}, []string{"mode"})

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kv",
		Name:      "operations_total",
		Help:      "Handle and lifecycle operations by outcome.",
	}, []string{"op", "result"})
)

// RegisterMetrics registers the package collectors with reg. The collectors
// count whether or not they are registered.
func RegisterMetrics(reg prometheus.Registerer) error {
	var err error
	for _, c := range []prometheus.Collector{openHandles, operations} {
		err = multierr.Append(err, reg.Register(c))
	}
	return err
}

// observe records the outcome of op and passes err through.
func observe(op string, err error) error {
	operations.WithLabelValues(op, KindOf(err).String()).Inc()
	return err
}

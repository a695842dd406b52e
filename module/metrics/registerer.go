package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registerer creates collectors and registers them with the wrapped prometheus registerer.
// Registering a collector that is already registered with an identical description
// returns the existing collector, so journals can be reconstructed against one registry.
type Registerer struct {
	prometheus.Registerer
}

func NewRegisterer(registerer prometheus.Registerer) *Registerer {
	return &Registerer{registerer}
}

func (r *Registerer) RegisterNewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	return register(r, prometheus.NewHistogram(opts))
}

func (r *Registerer) RegisterNewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	return register(r, prometheus.NewHistogramVec(opts, labelNames))
}

func (r *Registerer) RegisterNewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	return register(r, prometheus.NewCounter(opts))
}

func (r *Registerer) RegisterNewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	return register(r, prometheus.NewCounterVec(opts, labelNames))
}

func (r *Registerer) RegisterNewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	return register(r, prometheus.NewGauge(opts))
}

func register[C prometheus.Collector](r *Registerer, collector C) C {
	err := r.Register(collector)
	if err == nil {
		return collector
	}
	if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

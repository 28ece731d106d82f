package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultWritten = "written"
	resultExists  = "exists"
	resultHit     = "hit"
	resultMiss    = "miss"
	resultCorrupt = "corrupt"
)

type metrics struct {
	stores  *prometheus.CounterVec
	loads   *prometheus.CounterVec
	written *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasmbench",
			Subsystem: "cache",
			Name:      "stores_total",
			Help:      "Artifact stores by backend and whether the entry was written or already present.",
		}, []string{"backend", "result"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasmbench",
			Subsystem: "cache",
			Name:      "loads_total",
			Help:      "Artifact loads by backend and outcome.",
		}, []string{"backend", "result"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasmbench",
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes of artifacts written to the cache.",
		}, []string{"backend"}),
	}
	if reg != nil {
		reg.MustRegister(m.stores, m.loads, m.written)
	}
	return m
}

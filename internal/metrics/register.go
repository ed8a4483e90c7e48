package metrics

import "github.com/prometheus/client_golang/prometheus"

var collectors []prometheus.Collector

// register is called by init() in each metrics file to enqueue collectors.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers all enqueued collectors with reg. Each registry
// may be passed once; the collectors themselves are shared.
func MustRegister(reg prometheus.Registerer) {
	if len(collectors) > 0 {
		reg.MustRegister(collectors...)
	}
}

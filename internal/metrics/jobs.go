package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(jobRunsTotal, deliveriesTotal, lastSuccessTimestamp) }

var jobRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "meal_notifier_job_runs_total",
		Help: "Lookup-and-send runs, labeled by trigger and final status.",
	},
	[]string{"trigger", "status"},
)

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "meal_notifier_deliveries_total",
		Help: "Messages handed to Telegram, labeled by result.",
	},
	[]string{"result"}, // 'ok', 'error'
)

var lastSuccessTimestamp = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "meal_notifier_last_success_timestamp_seconds",
		Help: "Unix time of the last run that delivered to every destination.",
	},
)

// ObserveRun counts a finished run.
func ObserveRun(trigger, status string) {
	jobRunsTotal.WithLabelValues(trigger, status).Inc()
	if status == StatusSent {
		lastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}
}

// ObserveDelivery counts one per-destination send.
func ObserveDelivery(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	deliveriesTotal.WithLabelValues(result).Inc()
}

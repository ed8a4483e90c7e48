package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMustRegisterEachRegistry(t *testing.T) {
	ObserveRun("manual", StatusSent)

	for i := 0; i < 2; i++ {
		reg := prometheus.NewRegistry()
		MustRegister(reg)

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("registry %d: gather failed: %v", i, err)
		}
		found := map[string]bool{}
		for _, mf := range families {
			found[mf.GetName()] = true
		}
		for _, name := range []string{"meal_notifier_job_runs_total", "meal_notifier_last_success_timestamp_seconds"} {
			if !found[name] {
				t.Errorf("registry %d: expected %s to be registered", i, name)
			}
		}
	}
}

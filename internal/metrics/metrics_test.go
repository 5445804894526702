package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	RecordStart()
	RecordComplete("DoclingAI", "pdf", true, 2, 150*time.Millisecond)
	RecordComplete("DoclingAI", "pdf", false, 0, time.Millisecond)
	RecordCacheEvent("hit")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"echoflow_conversion_total",
		"echoflow_conversion_duration_seconds",
		"echoflow_conversion_inflight",
		"echoflow_images_extracted_total",
		"echoflow_cache_events_total",
	} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL", jobName: "j", gatewayURL: "", wantErr: true},
		{name: "default job name", jobName: "", gatewayURL: "http://gw:9091", wantJobName: "pipeline"},
		{name: "explicit job name", jobName: "restaurant-analytics", gatewayURL: "http://gw:9091", wantJobName: "restaurant-analytics"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewBackend() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.stepCounter == nil || b.stepDuration == nil || b.recordCounter == nil || b.reportCounter == nil {
				t.Fatal("collectors not initialized")
			}
		})
	}
}

func TestIncCounterRoutesByName(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("j", "http://gw:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("pipeline_step_total", 1, metrics.Labels{"step": "clean", "status": "success"})
	b.IncCounter("pipeline_step_total", 1, metrics.Labels{"step": "clean", "status": "success"})
	b.IncCounter("pipeline_records_total", 5, metrics.Labels{"entity": "orders", "kind": "cleaned"})
	b.IncCounter("pipeline_report_rows_total", 3, metrics.Labels{"report": "ticket_analytics"})
	b.IncCounter("totally_unknown_metric", 9, nil) // must be ignored

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("clean", "success")); got != 2 {
		t.Fatalf("step counter = %v, want 2", got)
	}
	if got := readCounterValue(t, b.recordCounter.WithLabelValues("orders", "cleaned")); got != 5 {
		t.Fatalf("record counter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.reportCounter.WithLabelValues("ticket_analytics")); got != 3 {
		t.Fatalf("report counter = %v, want 3", got)
	}
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("j", "http://gw:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveHistogram("pipeline_step_duration_seconds", 0.25, metrics.Labels{"step": "aggregate", "status": "success"})
	b.ObserveHistogram("pipeline_step_duration_seconds", 0.75, metrics.Labels{"step": "aggregate", "status": "success"})
	b.ObserveHistogram("some_other_histogram", 1.0, metrics.Labels{"step": "aggregate"})

	count, sum := readSummaryCountSum(t, b.stepDuration, "aggregate", "success")
	if count != 2 {
		t.Fatalf("summary count = %d, want 2", count)
	}
	if sum != 1.0 {
		t.Fatalf("summary sum = %v, want 1.0", sum)
	}
}

// TestFlushPushesToGateway stands up a fake Pushgateway and verifies the push
// carries the registered metric families.
func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("j", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("pipeline_step_total", 1, metrics.Labels{"step": "clean", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(body, "pipeline_step_total") {
		t.Fatalf("push body missing metric family: %q", body)
	}
}

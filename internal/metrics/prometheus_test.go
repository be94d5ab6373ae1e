package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics_InitializationAndUpdate(t *testing.T) {
	pm := NewPrometheusMetrics()
	if pm == nil {
		t.Fatalf("NewPrometheusMetrics returned nil")
	}

	pm.UpdateSystemMetrics()
	before := testutil.ToFloat64(pm.uptime)
	time.Sleep(10 * time.Millisecond)
	pm.UpdateSystemMetrics()
	after := testutil.ToFloat64(pm.uptime)
	if before >= after {
		t.Fatalf("expected uptime to increase, before=%v after=%v", before, after)
	}
	if got := testutil.ToFloat64(pm.goroutines); got < 1 {
		t.Errorf("expected at least one goroutine, got %v", got)
	}
}

func TestPrometheusMetrics_ScanMetrics(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.IncrementScansTotal("success")
	pm.IncrementScansTotal("success")
	pm.IncrementScansTotal("error")

	if count := testutil.CollectAndCount(pm.scansTotal); count != 2 {
		t.Errorf("expected 2 label combinations, got %d", count)
	}
	if got := testutil.ToFloat64(pm.scansTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("expected 2 successful scans, got %v", got)
	}

	pm.RecordScanDuration(5 * time.Second)
	if count := testutil.CollectAndCount(pm.scanDuration); count != 1 {
		t.Errorf("expected 1 histogram, got %d", count)
	}

	pm.IncrementScanErrors("TIMEOUT")
	if got := testutil.ToFloat64(pm.scanErrors.WithLabelValues("TIMEOUT")); got != 1 {
		t.Errorf("expected 1 timeout error, got %v", got)
	}

	pm.IncrementHostsScanned("alive", 3)
	pm.IncrementHostsScanned("unreachable", 5)
	if got := testutil.ToFloat64(pm.hostsScanned.WithLabelValues("unreachable")); got != 5 {
		t.Errorf("expected 5 unreachable hosts, got %v", got)
	}

	pm.IncrementPortsScanned("open", 2)
	pm.IncrementPortsScanned("open", 1)
	if got := testutil.ToFloat64(pm.portsScanned.WithLabelValues("open")); got != 3 {
		t.Errorf("expected 3 open ports, got %v", got)
	}
}

func TestPrometheusMetrics_ProbeAndWorkerMetrics(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.RecordProbeDuration("connect", 20*time.Millisecond)
	pm.RecordProbeDuration("ping", time.Second)
	pm.RecordProbeDuration("banner", 5*time.Millisecond)
	if count := testutil.CollectAndCount(pm.probeDuration); count != 3 {
		t.Errorf("expected 3 probe series, got %d", count)
	}

	pm.IncrementJobsTotal("port", "success")
	pm.IncrementJobsTotal("host", "failed")
	if count := testutil.CollectAndCount(pm.jobsTotal); count != 2 {
		t.Errorf("expected 2 job series, got %d", count)
	}

	pm.SetActiveWorkers(7)
	if got := testutil.ToFloat64(pm.activeWorkers); got != 7 {
		t.Errorf("expected 7 active workers, got %v", got)
	}
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	pm := NewPrometheusMetrics()
	pm.IncrementScansTotal("success")
	pm.IncrementPortsScanned("open", 4)

	path := filepath.Join(t.TempDir(), "netscan.prom")
	if err := pm.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	body := string(data)
	for _, want := range []string{
		`netscan_scan_total{status="success"} 1`,
		`netscan_scan_ports_total{port_status="open"} 4`,
		"netscan_system_uptime_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected textfile to contain %q", want)
		}
	}
}

func TestPrometheusMetrics_WriteTextfileBadPath(t *testing.T) {
	pm := NewPrometheusMetrics()
	if err := pm.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.IncrementScansTotal("success")
	r.RecordScanDuration(time.Second)
	r.IncrementScanErrors("x")
	r.IncrementHostsScanned("alive", 1)
	r.IncrementPortsScanned("open", 1)
	r.RecordProbeDuration("ping", time.Millisecond)
	r.IncrementJobsTotal("host", "success")
	r.SetActiveWorkers(1)
}

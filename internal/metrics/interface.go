// Package metrics provides interfaces for metrics collection.
package metrics

//go:generate mockgen -source=interface.go -destination=mocks/mock_recorder.go -package=mocks

import "time"

// Recorder receives scan and probe measurements. It is satisfied by
// PrometheusMetrics and by Nop, and is mocked in tests.
type Recorder interface {
	// IncrementScansTotal counts a finished scan by status.
	IncrementScansTotal(status string)

	// RecordScanDuration observes the wall time of a whole scan.
	RecordScanDuration(duration time.Duration)

	// IncrementScanErrors counts scans that ended with an error.
	IncrementScanErrors(errorType string)

	// IncrementHostsScanned counts hosts by gate outcome.
	IncrementHostsScanned(status string, count int)

	// IncrementPortsScanned counts port probes by outcome.
	IncrementPortsScanned(status string, count int)

	// RecordProbeDuration observes a single ping, connect or banner exchange.
	RecordProbeDuration(probe string, duration time.Duration)

	// IncrementJobsTotal counts worker pool jobs by type and status.
	IncrementJobsTotal(jobType, status string)

	// SetActiveWorkers reports the number of workers currently executing a job.
	SetActiveWorkers(count int)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) IncrementScansTotal(string) {}
func (Nop) RecordScanDuration(time.Duration) {}
func (Nop) IncrementScanErrors(string) {}
func (Nop) IncrementHostsScanned(string, int) {}
func (Nop) IncrementPortsScanned(string, int) {}
func (Nop) RecordProbeDuration(string, time.Duration) {}
func (Nop) IncrementJobsTotal(string, string) {}
func (Nop) SetActiveWorkers(int) {}

var (
	_ Recorder = (*PrometheusMetrics)(nil)
	_ Recorder = Nop{}
)

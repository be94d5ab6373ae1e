package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netscan/internal/config"
	"github.com/anstrom/netscan/internal/errors"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/probe"
	"github.com/anstrom/netscan/internal/scanning"
)

const testGreeting = "SSH-2.0-netscan-test"

// listen starts a loopback server that greets every connection.
func listen(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.WriteString(conn, testGreeting+"\r\n")
				_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
				_, _ = io.Copy(io.Discard, conn)
			}()
		}
	}()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

// closedPort returns a loopback port with no listener.
func closedPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())
	return port
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scanning.Workers = 4
	cfg.Scanning.QueueSize = 8
	cfg.Scanning.SkipPing = true
	cfg.Scanning.ConnectTimeout = time.Second
	cfg.Scanning.BannerTimeout = time.Second
	cfg.Output.Banner = false
	cfg.Output.Color = "never"
	return cfg
}

func scan(t *testing.T, cfg *config.Config, target, portSpec string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := executeScan(context.Background(), cfg, scanOptions{target: target, ports: portSpec}, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitInputError, exitCode(&exitError{code: exitInputError, err: io.EOF}))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("wrapped: %w", &exitError{code: exitFailure, err: io.EOF})))
	assert.Equal(t, exitInputError, exitCode(fmt.Errorf(`required flag(s) "address" not set`)))
}

func TestExecuteScan_InvalidPorts(t *testing.T) {
	tests := []struct {
		ports    string
		expected string
	}{
		{"80-", "ERROR: Invalid port format\n"},
		{"http", "ERROR: Invalid port format\n"},
		{"22,,80", "ERROR: Invalid port format\n"},
		{"70000", "ERROR: Invalid port value\n"},
		{"22-20", "ERROR: Invalid port value\n"},
		{"0", "ERROR: Invalid port value\n"},
	}

	for _, tt := range tests {
		t.Run(tt.ports, func(t *testing.T) {
			stdout, stderr, err := scan(t, testConfig(), "127.0.0.1", tt.ports)
			requireExitCode(t, err, exitInputError)
			assert.Equal(t, tt.expected, stderr)
			assert.Empty(t, stdout)
		})
	}
}

func TestExecuteScan_InvalidTarget(t *testing.T) {
	tests := []struct {
		target   string
		expected string
	}{
		{"", "ERROR: Invalid IP address\n"},
		{"not-an-ip", "ERROR: Invalid IP address\n"},
		{"192.168.1.0/24/32", "ERROR: Invalid CIDR format\n"},
		{"invalid/24", "ERROR: Invalid IP of CIDR address\n"},
		{"192.168.1.0/64", "ERROR: Invalid size of CIDR address\n"},
		{"192.168.1.0/0", "ERROR: Invalid size of CIDR address\n"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			stdout, stderr, err := scan(t, testConfig(), tt.target, "80")
			requireExitCode(t, err, exitInputError)
			assert.Equal(t, tt.expected, stderr)
			assert.Empty(t, stdout)
		})
	}
}

func TestExecuteScan_TargetTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Scanning.MaxHosts = 2

	stdout, stderr, err := scan(t, cfg, "10.0.0.0/30", "80")
	requireExitCode(t, err, exitInputError)
	assert.Contains(t, stderr, "ERROR: Target range exceeds the configured host limit")
	assert.Empty(t, stdout)
}

func TestExecuteScan_Text(t *testing.T) {
	open := listen(t)
	closed := closedPort(t)

	stdout, stderr, err := scan(t, testConfig(), "127.0.0.1", fmt.Sprintf("%d,%d", open, closed))
	require.NoError(t, err)
	assert.Empty(t, stderr)

	assert.Contains(t, stdout, "IP                 Open Ports\n")
	assert.Contains(t, stdout, "\n127.0.0.1\n")
	assert.Contains(t, stdout, fmt.Sprintf("\t\t%d -> %s\n", open, testGreeting))
	assert.NotContains(t, stdout, fmt.Sprintf("\t\t%d -> ", closed))
}

func TestExecuteScan_Header(t *testing.T) {
	open := listen(t)
	cfg := testConfig()
	cfg.Output.Banner = true

	stdout, _, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(open))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Target IP: 127.0.0.1\n")
	assert.Contains(t, stdout, fmt.Sprintf("Ports: %d\n", open))
}

func TestExecuteScan_NoHostsFound(t *testing.T) {
	cfg := testConfig()
	port := fmt.Sprint(closedPort(t))

	// Repeated scans of a closed port are idempotent and succeed.
	for i := 0; i < 2; i++ {
		stdout, stderr, err := scan(t, cfg, "127.0.0.1", port)
		require.NoError(t, err)
		assert.Equal(t, "\nNo hosts found.\n", stdout)
		assert.Empty(t, stderr)
	}
}

func TestExecuteScan_NoBanner(t *testing.T) {
	open := listen(t)
	cfg := testConfig()
	cfg.Scanning.GrabBanners = false

	stdout, _, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(open))
	require.NoError(t, err)
	assert.Contains(t, stdout, fmt.Sprintf("\t\t%d -> %s\n", open, probe.Placeholder))
}

func TestExecuteScan_JSON(t *testing.T) {
	open := listen(t)
	cfg := testConfig()
	cfg.Output.Format = "json"
	cfg.Output.Banner = true

	stdout, _, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(open))
	require.NoError(t, err)

	var report scanning.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), stdout)
	require.Len(t, report.Hosts, 1)
	assert.Equal(t, "127.0.0.1", report.Hosts[0].Address)
	assert.Equal(t, testGreeting, report.Hosts[0].Ports[open])
	assert.Equal(t, 1, report.Stats.PortsOpen)
}

func TestExecuteScan_MetricsTextfile(t *testing.T) {
	open := listen(t)
	cfg := testConfig()
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "netscan.prom")

	_, _, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(open))
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `netscan_scan_total{status="success"} 1`)
	assert.Contains(t, string(data), `netscan_scan_ports_total{port_status="open"} 1`)
}

func TestExecuteScan_MetricsWriteFailureIsLogged(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)
	var logs bytes.Buffer
	logging.SetDefault(logging.NewWithWriter(logging.Config{Level: logging.LevelWarn, Format: logging.FormatText}, &logs))

	cfg := testConfig()
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "missing", "netscan.prom")

	stdout, _, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(listen(t)))
	require.NoError(t, err, "a metrics failure does not fail the scan")
	assert.Contains(t, stdout, testGreeting)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "Failed to write metrics textfile")
}

func TestExecuteScan_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Scanning.ScanTimeout = time.Nanosecond

	stdout, stderr, err := scan(t, cfg, "127.0.0.1", fmt.Sprint(closedPort(t)))
	requireExitCode(t, err, exitFailure)
	assert.True(t, errors.IsCode(err, errors.CodeTimeout))
	assert.Equal(t, "ERROR: scan deadline exceeded\n", stderr)
	assert.Contains(t, stdout, "No hosts found.")
}

func TestExecuteWatch(t *testing.T) {
	open := listen(t)
	cfg := testConfig()
	cfg.Watch.Schedule = "@every 1h"

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	opts := scanOptions{target: "127.0.0.1", ports: fmt.Sprint(open)}
	require.NoError(t, executeWatch(ctx, cfg, opts, true, &stdout, &stderr))

	assert.Contains(t, stdout.String(), fmt.Sprintf("\t\t%d -> %s\n", open, testGreeting))
	assert.Empty(t, stderr.String())
}

func TestExecuteWatch_InvalidInput(t *testing.T) {
	cfg := testConfig()
	cfg.Watch.Schedule = "every tuesday"

	var stdout, stderr bytes.Buffer
	err := executeWatch(context.Background(), cfg, scanOptions{target: "127.0.0.1"}, false, &stdout, &stderr)
	requireExitCode(t, err, exitInputError)
	assert.Contains(t, stderr.String(), "watch.schedule")

	cfg.Watch.Schedule = "@hourly"
	stderr.Reset()
	err = executeWatch(context.Background(), cfg, scanOptions{target: "127.0.0.1", ports: "99999"}, false, &stdout, &stderr)
	requireExitCode(t, err, exitInputError)
	assert.Equal(t, "ERROR: Invalid port value\n", stderr.String())
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "netscan 1.2.3 (commit: abc123, built: 2026-01-01)")
}

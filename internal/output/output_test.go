package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/netscan/internal/scanning"
)

func sampleReport() *scanning.Report {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &scanning.Report{
		ID:        "3c5d8f0e-0000-4000-8000-000000000001",
		Target:    "192.168.1.0/30",
		Ports:     "22,80,443",
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
		Duration:  1500 * time.Millisecond,
		Hosts: []scanning.HostResult{
			{
				Address: "192.168.1.1",
				Ports:   map[uint16]string{443: "Service info not available.", 22: "SSH-2.0-OpenSSH_9.6", 80: "nginx"},
			},
			{
				Address:  "192.168.1.2",
				Hostname: "printer.lan",
				Ports:    map[uint16]string{80: "HP HTTP Server"},
			},
		},
		Stats: scanning.Stats{HostsTotal: 4, HostsAlive: 2, PortsProbed: 6, PortsOpen: 4},
	}
}

func newPrinter(t *testing.T, opts Options) (*Printer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p, err := New(&buf, opts)
	require.NoError(t, err)
	return p, &buf
}

func TestNew(t *testing.T) {
	p, _ := newPrinter(t, Options{})
	assert.Equal(t, FormatText, p.Format())

	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Color: "sometimes"})
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	p, buf := newPrinter(t, Options{Format: FormatText, Color: ColorNever})
	require.NoError(t, p.Report(sampleReport()))

	expected := "\n" +
		"IP                 Open Ports\n" +
		"-----------------------------\n" +
		"192.168.1.1\n" +
		"\t\t22 -> SSH-2.0-OpenSSH_9.6\n" +
		"\t\t80 -> nginx\n" +
		"\t\t443 -> Service info not available.\n" +
		"192.168.1.2 (printer.lan)\n" +
		"\t\t80 -> HP HTTP Server\n"
	assert.Equal(t, expected, buf.String())
}

func TestText_Empty(t *testing.T) {
	p, buf := newPrinter(t, Options{Color: ColorNever})
	require.NoError(t, p.Report(&scanning.Report{Hosts: []scanning.HostResult{}}))
	assert.Equal(t, "\nNo hosts found.\n", buf.String())
}

func TestText_Stats(t *testing.T) {
	p, buf := newPrinter(t, Options{Color: ColorNever, Stats: true})
	require.NoError(t, p.Report(sampleReport()))
	assert.True(t, strings.HasSuffix(buf.String(), "\n4 hosts scanned, 2 alive, 4 of 6 probes open in 1.5s\n"),
		buf.String())
}

func TestText_Color(t *testing.T) {
	p, buf := newPrinter(t, Options{Color: ColorAlways})
	require.NoError(t, p.Report(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "\x1b[38;2;22;121;226m")
	assert.Contains(t, out, "\x1b[38;2;233;134;29m")
}

func TestHeader(t *testing.T) {
	p, buf := newPrinter(t, Options{Color: ColorNever})
	p.Header("10.0.0.0/24", "1-1024")
	assert.Equal(t, "Target IP: 10.0.0.0/24\nPorts: 1-1024\n", buf.String())

	p, buf = newPrinter(t, Options{Color: ColorNever})
	p.Banner()
	assert.Contains(t, buf.String(), "|_| |_|")
}

func TestHeader_MachineFormatsStayQuiet(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		p, buf := newPrinter(t, Options{Format: format, Color: ColorNever})
		p.Banner()
		p.Header("10.0.0.1", "80")
		assert.Empty(t, buf.String(), format)
	}
}

func TestTable(t *testing.T) {
	p, buf := newPrinter(t, Options{Format: FormatTable, Color: ColorNever})
	require.NoError(t, p.Report(sampleReport()))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "address")
	assert.Contains(t, out, "printer.lan")
	assert.Contains(t, out, "SSH-2.0-OpenSSH_9.6")

	// Rows follow host order, then port order.
	assert.Less(t, strings.Index(out, "SSH-2.0"), strings.Index(out, "nginx"))
	assert.Less(t, strings.Index(out, "nginx"), strings.Index(out, "HP HTTP Server"))

	p, buf = newPrinter(t, Options{Format: FormatTable})
	require.NoError(t, p.Report(&scanning.Report{}))
	assert.Equal(t, "No hosts found.\n", buf.String())
}

func TestJSON(t *testing.T) {
	p, buf := newPrinter(t, Options{Format: FormatJSON, Color: ColorAlways})
	report := sampleReport()
	require.NoError(t, p.Report(report))

	assert.NotContains(t, buf.String(), "\x1b[")

	var decoded scanning.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Hosts, decoded.Hosts)
	assert.Equal(t, report.Stats, decoded.Stats)
	assert.True(t, report.StartTime.Equal(decoded.StartTime))
}

func TestYAML(t *testing.T) {
	p, buf := newPrinter(t, Options{Format: FormatYAML})
	require.NoError(t, p.Report(sampleReport()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "192.168.1.0/30", decoded["target"])
	assert.Equal(t, "1.5s", decoded["duration"])

	hosts, ok := decoded["hosts"].([]any)
	require.True(t, ok)
	assert.Len(t, hosts, 2)
}

package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/netscan/internal/scanning"
)

const (
	noHosts     = "No hosts found."
	hostHeading = "IP                 Open Ports"
	hostRule    = "-----------------------------"
)

func (p *Printer) text(report *scanning.Report) error {
	if report.Empty() {
		fmt.Fprintf(p.w, "\n%s\n", noHosts)
		return p.stats(report)
	}

	fmt.Fprintf(p.w, "\n%s\n%s\n", p.accent.Sprint(hostHeading), p.accent.Sprint(hostRule))
	for _, host := range report.Hosts {
		line := p.accent.Sprint(host.Address)
		if host.Hostname != "" {
			line += " (" + host.Hostname + ")"
		}
		fmt.Fprintln(p.w, line)

		for _, port := range host.SortedPorts() {
			fmt.Fprintf(p.w, "\t\t%s -> %s\n",
				p.inverse.Sprint(strconv.Itoa(int(port))),
				p.inverse.Sprint(host.Ports[port]))
		}
	}
	return p.stats(report)
}

func (p *Printer) stats(report *scanning.Report) error {
	if !p.opts.Stats {
		return nil
	}
	s := report.Stats
	_, err := fmt.Fprintf(p.w, "\n%d hosts scanned, %d alive, %d of %d probes open in %s\n",
		s.HostsTotal, s.HostsAlive, s.PortsOpen, s.PortsProbed, report.Duration.Round(time.Millisecond))
	return err
}

// table prints one row per open port.
func (p *Printer) table(report *scanning.Report) error {
	if report.Empty() {
		_, err := fmt.Fprintln(p.w, noHosts)
		return err
	}

	table := tablewriter.NewWriter(p.w)
	table.Header("Address", "Hostname", "Port", "Service")
	for _, host := range report.Hosts {
		for _, port := range host.SortedPorts() {
			if err := table.Append([]string{
				host.Address,
				host.Hostname,
				strconv.Itoa(int(port)),
				host.Ports[port],
			}); err != nil {
				return err
			}
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	return p.stats(report)
}

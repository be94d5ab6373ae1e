package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/netscan/internal/config"
	"github.com/anstrom/netscan/internal/errors"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/metrics"
	"github.com/anstrom/netscan/internal/output"
	"github.com/anstrom/netscan/internal/ports"
	"github.com/anstrom/netscan/internal/resolve"
	"github.com/anstrom/netscan/internal/scanning"
	"github.com/anstrom/netscan/internal/targets"
)

// scanOptions holds flags that have no configuration key.
type scanOptions struct {
	target   string
	ports    string
	noBanner bool
	quiet    bool
}

var scanOpts scanOptions

// scanFlagKeys maps scan flags to configuration keys.
var scanFlagKeys = map[string]string{
	"workers":         "scanning.workers",
	"no-ping":         "scanning.skip_ping",
	"ping-timeout":    "scanning.ping_timeout",
	"connect-timeout": "scanning.connect_timeout",
	"banner-timeout":  "scanning.banner_timeout",
	"timeout":         "scanning.scan_timeout",
	"rate-limit":      "scanning.rate_limit",
	"max-hosts":       "scanning.max_hosts",
	"output":          "output.format",
	"color":           "output.color",
	"stats":           "output.stats",
	"resolve":         "resolve.enabled",
	"dns-server":      "resolve.server",
	"metrics-file":    "metrics.textfile",
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a host or CIDR block for open TCP ports",
	Long: `Scan a single IPv4 address or every address of a CIDR block.

Hosts that do not answer an ICMP echo are skipped unless --no-ping is given.
Open ports are listed with the service identified from their banner. Ports
default to scanning.default_ports (1-1024) when --ports is omitted.`,
	Example: `  netscan scan -a 192.168.1.10
  netscan scan -a 192.168.1.0/24 -p 22,80,443
  netscan scan -a 10.0.0.0/28 -p 20-25,8080 --no-ping -o json
  netscan scan -a 192.168.1.0/24 --resolve --metrics-file /var/lib/node_exporter/netscan.prom`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(viper.GetViper(), cmd.Flags(), scanFlagKeys)
	},
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addScanFlags(scanCmd, &scanOpts)
}

// addScanFlags registers the flags shared by scan and watch.
func addScanFlags(cmd *cobra.Command, opts *scanOptions) {
	d := config.Default()
	flags := cmd.Flags()

	flags.StringVarP(&opts.target, "address", "a", "", "IPv4 address or CIDR block to scan")
	flags.StringVarP(&opts.ports, "ports", "p", "", "Ports: single (80), list (22,80,443) or range (20-25)")
	flags.BoolVar(&opts.noBanner, "no-banner", false, "Report open ports without identifying services")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Omit the logo and scan header")

	flags.Int("workers", d.Scanning.Workers, "Number of concurrent probes")
	flags.Bool("no-ping", false, "Probe every host without the ICMP reachability check")
	flags.Duration("ping-timeout", d.Scanning.PingTimeout, "Wait per ICMP echo attempt")
	flags.Duration("connect-timeout", d.Scanning.ConnectTimeout, "TCP connect timeout")
	flags.Duration("banner-timeout", d.Scanning.BannerTimeout, "Banner read timeout")
	flags.Duration("timeout", d.Scanning.ScanTimeout, "Deadline for the whole scan (0 = none)")
	flags.Float64("rate-limit", d.Scanning.RateLimit, "Probes started per second (0 = unlimited)")
	flags.Int("max-hosts", d.Scanning.MaxHosts, "Reject targets with more hosts (0 = unlimited)")
	flags.StringP("output", "o", d.Output.Format, "Output format: text, table, json, yaml")
	flags.String("color", d.Output.Color, "Color mode: auto, always, never")
	flags.Bool("stats", false, "Print a scan summary")
	flags.Bool("resolve", false, "Look up reverse DNS names of reported hosts")
	flags.String("dns-server", "", "DNS server for --resolve as host:port (default from /etc/resolv.conf)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile after each scan")

	_ = cmd.MarkFlagRequired("address")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveSettings(cmd.ErrOrStderr(), scanOpts)
	if err != nil {
		return err
	}
	return executeScan(ctx, cfg, scanOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// resolveSettings loads the configuration and applies flags that have no
// configuration key. Failures are reported as input errors.
func resolveSettings(stderr io.Writer, opts scanOptions) (*config.Config, error) {
	cfg, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, inputFailure(stderr, err)
	}
	if opts.noBanner {
		cfg.Scanning.GrabBanners = false
	}
	if opts.quiet {
		cfg.Output.Banner = false
	}
	configureLogging(cfg.Logging)
	return cfg, nil
}

// scanJob is a validated scan request.
type scanJob struct {
	target   string
	spec     string
	portSet  ports.Set
	printer  *output.Printer
	scanner  *scanning.Scanner
	recorder metrics.Recorder
	textfile *metrics.PrometheusMetrics
}

// prepareScan validates the request and builds the scanner. Invalid ports
// or targets fail before anything is printed to stdout.
func prepareScan(cfg *config.Config, opts scanOptions, stdout, stderr io.Writer) (*scanJob, error) {
	portSet, err := ports.Parse(opts.ports, cfg.Scanning.DefaultPorts)
	if err != nil {
		return nil, inputFailure(stderr, err)
	}
	if _, err := targets.Parse(opts.target); err != nil {
		return nil, inputFailure(stderr, err)
	}

	printer, err := output.New(stdout, output.Options{
		Format: cfg.Output.Format,
		Color:  cfg.Output.Color,
		Stats:  cfg.Output.Stats,
	})
	if err != nil {
		return nil, inputFailure(stderr, err)
	}

	job := &scanJob{
		target:   opts.target,
		spec:     opts.ports,
		portSet:  portSet,
		printer:  printer,
		recorder: metrics.Nop{},
	}
	if job.spec == "" {
		job.spec = portSet.String()
	}
	if cfg.Metrics.Textfile != "" {
		job.textfile = metrics.NewPrometheusMetrics()
		job.recorder = job.textfile
	}

	options := []scanning.Option{
		scanning.WithRecorder(job.recorder),
		scanning.WithLogger(logging.Default()),
	}
	if cfg.Resolve.Enabled {
		resolver, err := resolve.New(cfg.Resolve.Server, cfg.Resolve.Timeout, cfg.Resolve.Concurrency)
		if err != nil {
			return nil, inputFailure(stderr, errors.WrapConfigError(errors.CodeConfiguration,
				"No DNS server available for --resolve", err))
		}
		options = append(options, scanning.WithResolver(resolver))
	}
	job.scanner = scanning.New(scannerConfig(cfg), options...)

	return job, nil
}

// run performs one scan and prints its report. Partial reports from an
// interrupted scan are still printed.
func (j *scanJob) run(ctx context.Context, cfg *config.Config, stderr io.Writer) error {
	if cfg.Output.Banner {
		j.printer.Header(j.target, j.spec)
	}

	report, scanErr := j.scanner.Scan(ctx, j.target, j.portSet)
	j.writeMetrics(cfg.Metrics.Textfile)

	if scanErr != nil && errors.IsInputError(scanErr) {
		return inputFailure(stderr, scanErr)
	}
	if err := j.printer.Report(report); err != nil {
		return failure(stderr, err)
	}
	if scanErr != nil {
		return failure(stderr, scanErr)
	}
	return nil
}

func (j *scanJob) writeMetrics(path string) {
	if j.textfile == nil {
		return
	}
	if err := j.textfile.WriteTextfile(path); err != nil {
		logging.Error("Failed to write metrics textfile", "path", path, "error", err)
	}
}

func executeScan(ctx context.Context, cfg *config.Config, opts scanOptions, stdout, stderr io.Writer) error {
	job, err := prepareScan(cfg, opts, stdout, stderr)
	if err != nil {
		return err
	}
	if cfg.Output.Banner {
		job.printer.Banner()
	}
	return job.run(ctx, cfg, stderr)
}

// inputFailure prints the short diagnostic for err and marks it as an
// input error.
func inputFailure(stderr io.Writer, err error) error {
	_, _ = io.WriteString(stderr, errors.Diagnostic(err)+"\n")
	return &exitError{code: exitInputError, err: err}
}

func failure(stderr io.Writer, err error) error {
	_, _ = io.WriteString(stderr, errors.Diagnostic(err)+"\n")
	return &exitError{code: exitFailure, err: err}
}

// Package output renders scan reports for the terminal and for machines.
//
// Text and table formats are meant for people and may carry color. JSON and
// YAML formats emit only the report so stdout can be piped into other tools.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/anstrom/netscan/internal/scanning"
)

// Supported formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Accent color used for addresses and headings, and its inverse for ports.
var (
	accentRGB  = [3]int{22, 121, 226}
	inverseRGB = [3]int{255 - 22, 255 - 121, 255 - 226}
)

const logo = `
 _ __   ___| |_ ___  ___ __ _ _ __
| '_ \ / _ \ __/ __|/ __/ _' | '_ \
| | | |  __/ |_\__ \ (_| (_| | | | |
|_| |_|\___|\__|___/\___\__,_|_| |_|
`

// Options selects how reports are printed.
type Options struct {
	Format string
	Color  string
	// Stats appends a summary line to text output.
	Stats bool
}

// Printer writes scan headers and reports to a writer.
type Printer struct {
	w       io.Writer
	opts    Options
	accent  *color.Color
	inverse *color.Color
}

// New creates a Printer. An empty format means text and an empty color mode
// means auto.
func New(w io.Writer, opts Options) (*Printer, error) {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Color == "" {
		opts.Color = ColorAuto
	}

	switch opts.Format {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", opts.Format)
	}

	p := &Printer{
		w:       w,
		opts:    opts,
		accent:  color.RGB(accentRGB[0], accentRGB[1], accentRGB[2]),
		inverse: color.RGB(inverseRGB[0], inverseRGB[1], inverseRGB[2]),
	}

	switch opts.Color {
	case ColorAlways:
		p.accent.EnableColor()
		p.inverse.EnableColor()
	case ColorNever:
		p.accent.DisableColor()
		p.inverse.DisableColor()
	case ColorAuto:
		// fatih/color decides from the terminal and NO_COLOR.
	default:
		return nil, fmt.Errorf("unknown color mode %q", opts.Color)
	}

	return p, nil
}

// Format returns the selected output format.
func (p *Printer) Format() string {
	return p.opts.Format
}

// human reports whether the format is meant to be read by people.
func (p *Printer) human() bool {
	return p.opts.Format == FormatText || p.opts.Format == FormatTable
}

// Banner prints the program logo. Machine formats print nothing.
func (p *Printer) Banner() {
	if !p.human() {
		return
	}
	fmt.Fprintln(p.w, p.accent.Sprint(logo))
}

// Header announces the scan target and port specification.
func (p *Printer) Header(target, portSpec string) {
	if !p.human() {
		return
	}
	fmt.Fprintf(p.w, "Target IP: %s\n", p.accent.Sprint(target))
	fmt.Fprintf(p.w, "Ports: %s\n", p.accent.Sprint(portSpec))
}

// Report prints a finished scan.
func (p *Printer) Report(report *scanning.Report) error {
	switch p.opts.Format {
	case FormatTable:
		return p.table(report)
	case FormatJSON:
		return writeJSON(p.w, report)
	case FormatYAML:
		return writeYAML(p.w, report)
	default:
		return p.text(report)
	}
}

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/netscan/internal/scanning"
)

func writeJSON(w io.Writer, report *scanning.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, report *scanning.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as yaml: %w", err)
	}
	return enc.Close()
}

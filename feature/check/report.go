package check

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rom-manager/core/reconcile"

	"github.com/goccy/go-yaml"
)

// Report is the YAML document written by --report.
type Report struct {
	GeneratedAt time.Time              `yaml:"generated_at"`
	Algorithm   string                 `yaml:"algorithm"`
	DryRun      bool                   `yaml:"dry_run"`
	Systems     []*reconcile.CheckPlan `yaml:"systems"`
}

// WriteReport saves the plans to path, creating parent directories.
func WriteReport(path string, report Report) error {
	data, err := yaml.MarshalWithOptions(report, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("marshaling check report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing check report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading check report: %w", err)
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing check report: %w", err)
	}
	return &report, nil
}

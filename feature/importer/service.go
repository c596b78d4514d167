package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rom-manager/core/catalog"
	"rom-manager/core/hashing"
	"rom-manager/core/logger"
	"rom-manager/core/reconcile"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
)

// Options controls an import run.
type Options struct {
	Algorithm hashing.Algorithm
	// ReportPath, when set, receives the per-input reports as YAML.
	ReportPath string
}

// Summary counts inputs by outcome.
type Summary struct {
	Inputs      int `yaml:"inputs"`
	Placed      int `yaml:"placed"`
	Quarantined int `yaml:"quarantined"`
	Skipped     int `yaml:"skipped"`
	Failed      int `yaml:"failed"`
}

// Result is the outcome of an import run.
type Result struct {
	System  string                   `yaml:"system"`
	Summary Summary                  `yaml:"summary"`
	Reports []reconcile.ImportReport `yaml:"reports"`
}

// Service imports files.
type Service struct {
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewService creates an import service.
func NewService(engine *reconcile.Engine, logger *zap.Logger) *Service {
	return &Service{engine: engine, logger: logger}
}

// Run imports paths into system. Failed inputs are rolled back and counted;
// their errors are returned together after every input was tried.
func (s *Service) Run(ctx context.Context, system catalog.System, paths []string, opts Options) (*Result, error) {
	l := logger.WithSystem(s.logger, system.ID, system.Name)
	l.Info("Importing files", zap.Strings("paths", paths), zap.String("algorithm", opts.Algorithm.String()))

	reports, importErr := s.engine.Import(ctx, reconcile.ImportRequest{
		System:    system,
		Algorithm: opts.Algorithm,
		Paths:     paths,
	})

	result := &Result{System: system.Name, Reports: reports}
	for _, r := range reports {
		result.Summary.Inputs++
		switch r.Outcome {
		case reconcile.OutcomePlaced:
			result.Summary.Placed++
			for _, p := range r.Placements {
				l.Info("Imported", zap.String("input", r.Input), zap.String("path", p.Path), zap.Strings("roms", p.Roms))
			}
			if len(r.Dropped) > 0 {
				l.Warn("Entries without a match were left in the source", zap.String("input", r.Input), zap.Strings("entries", r.Dropped))
			}
		case reconcile.OutcomeQuarantined:
			result.Summary.Quarantined++
			l.Warn("No match, moved to Trash", zap.String("input", r.Input), zap.String("path", r.Quarantined))
		case reconcile.OutcomeSkipped:
			result.Summary.Skipped++
			l.Debug("Skipped", zap.String("input", r.Input), zap.String("reason", r.Reason))
		case reconcile.OutcomeFailed:
			result.Summary.Failed++
		}
	}

	l.Info("Import summary",
		zap.Int("inputs", result.Summary.Inputs),
		zap.Int("placed", result.Summary.Placed),
		zap.Int("quarantined", result.Summary.Quarantined),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Int("failed", result.Summary.Failed),
	)

	if opts.ReportPath != "" {
		if err := writeReport(opts.ReportPath, result); err != nil {
			return result, err
		}
		l.Info("Import report written", zap.String("path", opts.ReportPath))
	}
	return result, importErr
}

func writeReport(path string, result *Result) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling import report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing import report: %w", err)
	}
	return nil
}

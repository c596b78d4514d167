package check

import (
	"context"
	"fmt"
	"time"

	"rom-manager/core/catalog"
	"rom-manager/core/hashing"
	"rom-manager/core/logger"
	"rom-manager/core/prompt"
	"rom-manager/core/reconcile"

	"go.uber.org/zap"
)

// maxSamples bounds how many planned moves are logged per system.
const maxSamples = 5

// Options controls a check run.
type Options struct {
	Algorithm hashing.Algorithm
	// DryRun reports without moving anything, even when confirmed.
	DryRun bool
	// ReportPath, when set, receives the plans as YAML.
	ReportPath string
}

// Result summarizes a check run over several systems.
type Result struct {
	Plans []*reconcile.CheckPlan
	Moved int
}

// Service runs checks.
type Service struct {
	engine    *reconcile.Engine
	confirmer prompt.Confirmer
	logger    *zap.Logger
}

// NewService creates a check service. confirmer approves each system's moves.
func NewService(engine *reconcile.Engine, confirmer prompt.Confirmer, logger *zap.Logger) *Service {
	return &Service{
		engine:    engine,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Run checks every system in order. A failing system stops the run; moves
// already applied to earlier systems stay.
func (s *Service) Run(ctx context.Context, systems []catalog.System, opts Options) (*Result, error) {
	result := &Result{}

	for _, system := range systems {
		l := logger.WithSystem(s.logger, system.ID, system.Name)
		l.Info("Checking system", zap.String("algorithm", opts.Algorithm.String()))

		plan, err := s.engine.PlanCheck(ctx, reconcile.CheckRequest{System: system, Algorithm: opts.Algorithm})
		if err != nil {
			return result, fmt.Errorf("failed to check %s: %w", system.Name, err)
		}
		result.Plans = append(result.Plans, plan)
		printCheckReport(l, plan)

		moved, err := s.apply(ctx, l, plan, opts)
		if err != nil {
			return result, fmt.Errorf("failed to quarantine invalid files of %s: %w", system.Name, err)
		}
		result.Moved += moved
	}

	if opts.ReportPath != "" {
		report := Report{
			GeneratedAt: time.Now().UTC(),
			Algorithm:   opts.Algorithm.String(),
			DryRun:      opts.DryRun,
			Systems:     result.Plans,
		}
		if err := WriteReport(opts.ReportPath, report); err != nil {
			return result, err
		}
		s.logger.Info("Check report written", zap.String("path", opts.ReportPath))
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, l *zap.Logger, plan *reconcile.CheckPlan, opts Options) (int, error) {
	if len(plan.Moves) == 0 {
		return 0, nil
	}
	if opts.DryRun {
		l.Info("Dry-run mode: No files were moved.")
		return 0, nil
	}

	confirmed, err := s.confirmer.Confirm(ctx, fmt.Sprintf("Move %d invalid file(s) of %s to Trash?", len(plan.Moves), plan.SystemName))
	if err != nil {
		return 0, err
	}
	if !confirmed {
		l.Warn("Operation cancelled by user. No files were moved.")
		return 0, nil
	}

	moved, err := s.engine.ApplyCheck(ctx, plan, reconcile.CheckOptions{Confirmed: true, DryRun: opts.DryRun})
	if err != nil {
		return 0, err
	}
	l.Info("Moved invalid files to Trash", zap.Int("count", moved))
	return moved, nil
}

// printCheckReport logs the summary and a sample of planned moves.
func printCheckReport(l *zap.Logger, plan *reconcile.CheckPlan) {
	s := plan.Summary
	l.Info("Check report",
		zap.Int("romfiles", s.Romfiles),
		zap.Int("valid", s.Valid),
		zap.Int("invalid", s.Invalid),
		zap.Int("missing", s.Missing),
		zap.Int("skipped", s.Skipped),
	)

	maxShow := min(maxSamples, len(plan.Moves))
	for _, move := range plan.Moves[:maxShow] {
		l.Info("Planned move",
			zap.String("from", move.From),
			zap.String("to", move.To),
			zap.String("reason", move.Reason),
		)
	}
	if len(plan.Moves) > maxShow {
		l.Info("Additional moves not shown", zap.Int("count", len(plan.Moves)-maxShow))
	}
}

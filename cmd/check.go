package cmd

import (
	"fmt"

	"rom-manager/core/prompt"
	"rom-manager/feature/check"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkAll     bool
	checkYes     bool
	checkDryRun  bool
	checkSystems []string
	checkHash    string
	checkReport  string
)

// checkCmd verifies filed romfiles and quarantines the invalid ones.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify filed ROMs against the catalog",
	Long: `Re-hash every filed ROM of the selected systems and compare it with the
catalog. Files that no longer match are moved to the system's Trash directory
after confirmation.

Examples:
  # Check one system, asking before moving anything
  rom-manager check --system 12

  # Check every system without prompting
  rom-manager check --all --yes

  # Report only, and keep the plan for review
  rom-manager check --all --dry-run --report check.yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkAll, "all", "a", false, "Check all systems")
	checkCmd.Flags().BoolVarP(&checkYes, "yes", "y", false, "Auto-confirm moves to Trash (non-interactive)")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Report only, never move files")
	checkCmd.Flags().StringSliceVarP(&checkSystems, "system", "s", nil, "System id or name (repeatable)")
	checkCmd.Flags().StringVar(&checkHash, "hash", "", "Hash algorithm (CRC, MD5, SHA1)")
	checkCmd.Flags().StringVar(&checkReport, "report", "", "Write the check plan to this YAML file")

	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	algo, err := a.settings.Algorithm(ctx, checkHash)
	if err != nil {
		return err
	}

	systems, err := a.selectSystems(ctx, checkSystems, checkAll)
	if err != nil {
		return err
	}
	if len(systems) == 0 {
		a.logger.Info("No system selected")
		return nil
	}

	var confirmer prompt.Confirmer = a.terminal
	if checkYes {
		confirmer = prompt.AutoConfirm{}
	}

	svc := check.NewService(a.engine(), confirmer, a.logger)
	result, err := svc.Run(ctx, systems, check.Options{
		Algorithm:  algo,
		DryRun:     checkDryRun,
		ReportPath: checkReport,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	a.logger.Info("Check finished", zap.Int("systems", len(result.Plans)), zap.Int("moved", result.Moved))
	return nil
}

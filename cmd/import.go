package cmd

import (
	"fmt"

	"rom-manager/feature/importer"

	"github.com/spf13/cobra"
)

var (
	importSystem string
	importHash   string
	importReport string
)

// importCmd files new inputs into the library.
var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import files into the library",
	Long: `Identify each input file (directories are walked recursively) against the
catalog of one system and move it to its canonical location. Files that match
nothing are moved to the system's Trash directory.

Examples:
  rom-manager import ~/Downloads/roms --system "Nintendo - Game Boy"
  rom-manager import game.7z --system 12 --hash SHA1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importSystem, "system", "s", "", "System id or name")
	importCmd.Flags().StringVarP(&importHash, "hash", "a", "", "Hash algorithm (CRC, MD5, SHA1)")
	importCmd.Flags().StringVar(&importReport, "report", "", "Write per-input results to this YAML file")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	algo, err := a.settings.Algorithm(ctx, importHash)
	if err != nil {
		return err
	}

	var ids []string
	if importSystem != "" {
		ids = []string{importSystem}
	}
	systems, err := a.selectSystems(ctx, ids, false)
	if err != nil {
		return err
	}
	if len(systems) != 1 {
		return fmt.Errorf("import needs exactly one system, %d selected", len(systems))
	}

	svc := importer.NewService(a.engine(), a.logger)
	if _, err := svc.Run(ctx, systems[0], args, importer.Options{Algorithm: algo, ReportPath: importReport}); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

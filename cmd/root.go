package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rom-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "rom-manager",
	Short: "ROM library manager",
	Long: `rom-manager keeps a directory of ROM files in agreement with a catalog of
known-good dumps. It verifies filed ROMs (check) and sorts new files into
their canonical location (import).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	// Interrupts cancel the running flow; the current input is rolled back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// Console encoding with the development config gives ISO8601 timestamps
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"strings"

	"rom-manager/feature/settings"

	"github.com/spf13/cobra"
)

// configCmd is the parent command for persisted settings.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change persisted settings",
	Long:  "Settings are stored in the catalog database. Known keys: " + strings.Join(settings.Keys(), ", "),
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		value, err := a.settings.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.settings.Set(cmd.Context(), args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	RootCmd.AddCommand(configCmd)
}

package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/actions"
	"github.com/relloyd/empetl/config"
	"github.com/spf13/cobra"
)

var configConnListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all connections",
	Long: fmt.Sprintf(`List connections stored in config store %q
by printing them all to STDOUT with passwords redacted`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return actions.RunConnectionList(&actions.ConnectionConfig{
			ConfigFile: getConnectionGetterSetter(),
			Out:        cmd.OutOrStdout(),
		})
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
}

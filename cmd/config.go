package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure connections",
	Long: fmt.Sprintf(`Configure the connections used by the DAG where:

- Connections are stored in file %q`, config.Connections.FullPath),
}

func init() {
	rootCmd.AddCommand(configCmd)
}

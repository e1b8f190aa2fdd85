package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/config"
	"github.com/spf13/cobra"
)

var configConnCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conn"},
	Short:   "Configure connection details",
	Long: fmt.Sprintf(`Configure the Postgres source, Snowflake warehouse and S3 staging connections where:

- Connections are stored in file %q`, config.Connections.FullPath),
}

func init() {
	configCmd.AddCommand(configConnCmd)
	configCmd.Flags().SortFlags = false
	initConnAdd()
	initConnList()
	initConnRemove()
}

package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/actions"
	"github.com/relloyd/empetl/config"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnPostgresCfg = &actions.ConnectionConfig{}
var postgresConn = shared.DsnConnectionDetails{}

var configConnAddPostgresCmd = &cobra.Command{
	Use:     "postgres",
	Aliases: []string{"pg"},
	Short:   "Add a Postgres connection",
	Long: fmt.Sprintf(`Add a Postgres connection to the config store %q
by providing a DSN of the form:

postgres://<user>:<password>@<host>:<port>/<database-name>?sslmode=<mode>`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		configConnPostgresCfg.Type = constants.ConnectionTypePostgres
		configConnPostgresCfg.ConfigFile = getConnectionGetterSetter()
		configConnPostgresCfg.ConnDetails = &postgresConn
		configConnPostgresCfg.Out = cmd.OutOrStdout()
		cmd.SilenceUsage = true
		return actions.RunConnectionAdd(configConnPostgresCfg)
	},
}

func init() {
	configConnAddCmd.AddCommand(configConnAddPostgresCmd)
	configConnAddPostgresCmd.Flags().SortFlags = false
	switches.addFlag(configConnAddPostgresCmd, &configConnPostgresCfg.LogicalName, "connection-name", constants.DefaultSourceConnection, false, "")
	switches.addFlag(configConnAddPostgresCmd, &configConnPostgresCfg.Force, "force-connection", "", false, "")
	switches.addFlag(configConnAddPostgresCmd, &postgresConn.Dsn, "dsn", "", true, "")
}

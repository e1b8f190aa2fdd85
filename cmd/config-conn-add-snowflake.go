package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/actions"
	"github.com/relloyd/empetl/config"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/rdbms"
	"github.com/spf13/cobra"
)

var configConnSnowflakeCfg = &actions.ConnectionConfig{}
var snowflakeConn = rdbms.SnowflakeConnectionDetails{}

var configConnAddSnowflakeCmd = &cobra.Command{
	Use:   "snowflake",
	Short: "Add a Snowflake connection",
	Long: fmt.Sprintf(`Add a Snowflake connection to the config store %q
by supplying individual flags or a DSN of the form:

snowflake://<user>:<password>@<account>/<database-name>?schema=<schema>&warehouse=<warehouse>&role=<role>`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		configConnSnowflakeCfg.Type = constants.ConnectionTypeSnowflake
		configConnSnowflakeCfg.ConfigFile = getConnectionGetterSetter()
		configConnSnowflakeCfg.ConnDetails = &snowflakeConn
		configConnSnowflakeCfg.Out = cmd.OutOrStdout()
		cmd.SilenceUsage = true
		return actions.RunConnectionAdd(configConnSnowflakeCfg)
	},
}

func init() {
	configConnAddCmd.AddCommand(configConnAddSnowflakeCmd)
	configConnAddSnowflakeCmd.Flags().SortFlags = false
	switches.addFlag(configConnAddSnowflakeCmd, &configConnSnowflakeCfg.LogicalName, "connection-name", constants.DefaultWarehouseConnection, false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &configConnSnowflakeCfg.Force, "force-connection", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Dsn, "dsn", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.User, "user", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Password, "password", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Account, "snowflake-account", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.DBName, "snowflake-database-name", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Schema, "schema", constants.DefaultTargetSchema, false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.Warehouse, "snowflake-warehouse", "", false, "")
	switches.addFlag(configConnAddSnowflakeCmd, &snowflakeConn.RoleName, "snowflake-role", "", false, "")
}

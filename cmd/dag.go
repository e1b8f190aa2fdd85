package cmd

import (
	"github.com/relloyd/empetl/actions"
	"github.com/spf13/cobra"
)

var dagShowFormat string

var dagCmd = &cobra.Command{
	Use:   "dag",
	Short: "Inspect the DAG definition",
}

var dagShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the tasks and dependencies of the DAG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return actions.RunDagShow(&actions.DagShowConfig{
			Dag:    actions.NewEtlDag(etlCfg, &actions.EtlDeps{}),
			Format: dagShowFormat,
			Out:    cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(dagCmd)
	dagCmd.AddCommand(dagShowCmd)
	switches.addFlag(dagShowCmd, &dagShowFormat, "output", "yaml", false, "")
}

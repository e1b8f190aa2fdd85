package cmd

import (
	"fmt"

	"github.com/relloyd/empetl/constants"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information for " + constants.AppName,
	Long:  `Show version information for ` + constants.AppName,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), `%v
  Version:	%v
  Build date:	%v
  OS/Arch:	%v
`, constants.AppName, version, buildDate, osArch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

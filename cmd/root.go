package cmd

import (
	"os"

	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2023-05-12T00:00+0000"
	osArch           = "linux"
	stackDumpOnPanic bool
	logLevel         = "info"
	logJson          bool
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "Hourly load of employee finance and HR data into the Snowflake employee dimension",
	Long: `empetl runs ETL_Dag: it extracts employee salary and HR details from Postgres,
stages them as CSV files in S3, detects new and changed employees against the
current rows of the Snowflake employee dimension and applies the changes.

Use "run" for a single run or "schedule" to run every hour with a status API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyEnvOverrides(cmd.Flags())
	},
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", logLevel, `Log level: "error | warn | info | debug | trace"`)
	rootCmd.PersistentFlags().BoolVar(&logJson, "log-json", false, "Write log entries as JSON")
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// newLogger returns the application logger using the global log settings.
func newLogger() *logger.LoggerImpl {
	log := logger.NewLogger(constants.AppName, logLevel, stackDumpOnPanic)
	if logJson || os.Getenv(constants.EnvVarLogJson) != "" {
		log.SetFormatterJSON()
	}
	return log
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode {
			startLambda()
		} else if err := execute12FactorMode(twelveFactorActions); err != nil {
			// execute12FactorMode prints the error.
			os.Exit(1)
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}

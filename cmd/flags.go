package cmd

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"source-connection": cliFlag{name: "source-connection", shortHand: "s",
		desc: "Name of the Postgres connection holding the finance and hr schemas"},
	"warehouse-connection": cliFlag{name: "warehouse-connection", shortHand: "w",
		desc: "Name of the Snowflake connection holding the employee dimension"},
	"s3-connection": cliFlag{name: "s3-connection", shortHand: "c",
		desc: "Name of the S3 connection used to stage CSV files. If it is not configured, \n" +
			"the s3-bucket and s3-region flags are used"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name in which to stage CSV files (set AWS environment variables for access)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"finance-key": cliFlag{name: "finance-key", shortHand: "F",
		desc: "S3 key of the finance extract"},
	"hr-key": cliFlag{name: "hr-key", shortHand: "H",
		desc: "S3 key of the HR extract"},
	"target-schema": cliFlag{name: "target-schema", shortHand: "S",
		desc: "Snowflake schema of the employee dimension"},
	"target-table": cliFlag{name: "target-table", shortHand: "T",
		desc: "Snowflake table name of the employee dimension"},
	"source-filter": cliFlag{name: "source-filter", shortHand: "f",
		desc: "Optional JsonLogic rule applied to joined source rows, e.g. \n" +
			`'{"==": [{"var": "department"}, "HR"]}'`},
	"exec-batch-size": cliFlag{name: "exec-batch-size", shortHand: "E",
		desc: "The number of rows to bind into one warehouse statement"},
	"max-active-tasks": cliFlag{name: "max-active-tasks", shortHand: "A",
		desc: "Maximum number of tasks that run at the same time"},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping step statistics (use 0 to disable)"},
	"logical-date": cliFlag{name: "logical-date", shortHand: "d",
		desc: "RFC3339 start of the hourly interval to process (default: the previous hour)"},
	"start-date": cliFlag{name: "start-date", shortHand: "G",
		desc: "RFC3339 date before which scheduled intervals are not run"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port for the status and metrics web service (use 0 to disable)"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: `Specify "yaml" or "json" to print the DAG definition`},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Connection name referred to by the DAG"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Allow overwrite of existing connections"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Connect string to parse (takes priority over individual flags)"},
	"user": cliFlag{name: "user", shortHand: "u",
		desc: "Username to connect"},
	"password": cliFlag{name: "password", shortHand: "P",
		desc: "Password for the user"},
	"schema": cliFlag{name: "schema", shortHand: "s",
		desc: "Schema name (omit to use default)"},
	"snowflake-database-name": cliFlag{name: "database-name", shortHand: "D",
		desc: "Database name"},
	"snowflake-account": cliFlag{name: "account", shortHand: "a",
		desc: "Snowflake account"},
	"snowflake-role": cliFlag{name: "role", shortHand: "r",
		desc: "Snowflake role (omit to use default)"},
	"snowflake-warehouse": cliFlag{name: "warehouse", shortHand: "w",
		desc: "Snowflake compute warehouse name (omit to use default)"},
	"s3-dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "DSN of the form s3://<bucket name>/<prefix> (takes priority over individual flags)"},
}

// addFlag add a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map cliFlags.
// When running in twelveFactorMode, the targetVar is populated using the value of environment variable for the supplied
// name, or if not set then the supplied default value is used.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		}
	case *bool:
		b := helper.GetTrueFalseStringAsBool(sw.val)
		if twelveFactorMode {
			*p = b
		} else {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, b, desc)
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment when running in twelveFactorMode.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	s.val = defaultValue
	if twelveFactorMode {
		s.val = helper.ReadValueFromEnvWithDefault(flagNameToEnvVar(s.name), defaultValue)
	}
	return s
}

// applyEnvOverrides sets each flag that was not supplied on the command line from its environment variable, if set.
func applyEnvOverrides(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(fl *pflag.Flag) {
		if err != nil || fl.Changed {
			return
		}
		if v, ok := os.LookupEnv(flagNameToEnvVar(fl.Name)); ok && v != "" {
			if e := fs.Set(fl.Name, v); e != nil {
				err = fmt.Errorf("invalid value %q in %v: %w", v, flagNameToEnvVar(fl.Name), e)
			}
		}
	})
	return err
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

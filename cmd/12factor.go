package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/relloyd/empetl/actions"
	"github.com/relloyd/empetl/aws/s3"
	"github.com/relloyd/empetl/config"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/rdbms"
	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/xo/dburl"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can populate the action config from environment variables instead of CLI flags.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	lambdaMode = false
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		if strings.ToLower(mode) == "lambda" {
			lambdaMode = true
		}
	} else {
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarTwelveFactorMode
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND" // run | schedule
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
	defaultTwelveFactorCmd = "run"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
)

var twelveFactorActions = map[string]func() error{
	"run":      runEtl,
	"schedule": runSchedule,
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionGetterSetter() actions.ConnectionGetterSetter {
	if twelveFactorMode {
		fmt.Printf("Error: connections cannot be configured when %v is set (supply them using %v instead)\n",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName("<connection-name>"))
		os.Exit(1)
	}
	return config.Connections
}

func execute12FactorMode(acts map[string]func() error) (err error) {
	logLevel = helper.ReadValueFromEnvWithDefault(envVarLogLevel, logLevel)
	stackDumpOnPanic = os.Getenv(envVarStackDump) != ""
	log := newLogger()
	log.Info(c.AppName, " is running in 12 Factor mode...")
	command := helper.ReadValueFromEnvWithDefault(envVarCommand, defaultTwelveFactorCmd)
	a, ok := acts[command]
	if !ok {
		err = fmt.Errorf("invalid command %q in %v", command, envVarCommand)
		log.Error(err.Error())
		return
	}
	if err = a(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

type TwelveFactorConnections struct{} // implements actions.ConnectionLoader

// LoadConnection reads the DSN for connectionName from the environment and returns the connection details.
// The connection type is taken from EMPETL_<NAME>_TYPE if it is set, else it is inferred from the DSN scheme.
// S3 connections also need the bucket region in EMPETL_<NAME>_REGION.
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	var vDsn string
	kDsn := helper.GetDsnEnvVarName(connectionName)
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil {
		return shared.ConnectionDetails{}, err
	}
	vType, err := twelveFactorConnectionType(connectionName, vDsn)
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	m := make(map[string]string)
	switch vType {
	case c.ConnectionTypeSnowflake:
		cn, err := rdbms.SnowflakeParseDSN(vDsn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		// Rebuild the DSN again.
		dsn, err := rdbms.SnowflakeGetDSN(cn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		shared.DsnConnectionDetails{Dsn: dsn}.GetMap(m)
	case c.ConnectionTypeS3:
		var vRegion string
		kRegion := helper.GetRegionEnvVarName(connectionName)
		if err := helper.ReadValueFromEnv(kRegion, &vRegion); err != nil {
			return shared.ConnectionDetails{}, fmt.Errorf("bucket region not found in environment variable %v", kRegion)
		}
		cn, err := s3.ParseDSN(vDsn, vRegion)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		cn.GetMap(m)
	case c.ConnectionTypePostgres, c.ConnectionTypeMockPostgres, c.ConnectionTypeMockSnowflake:
		d := &shared.DsnConnectionDetails{Dsn: vDsn}
		if vType == c.ConnectionTypePostgres {
			if err := d.Parse(); err != nil {
				return shared.ConnectionDetails{}, err
			}
		}
		d.GetMap(m)
	default:
		return shared.ConnectionDetails{}, fmt.Errorf("unsupported connection type %q for connection %q", vType, connectionName)
	}
	return shared.ConnectionDetails{
		Type:        vType,
		LogicalName: connectionName,
		Data:        m,
	}, nil
}

// twelveFactorConnectionType returns the type in EMPETL_<NAME>_TYPE or the type matching the scheme of dsn.
func twelveFactorConnectionType(connectionName string, dsn string) (string, error) {
	kType := fmt.Sprintf("%v_%v_TYPE", c.EnvVarPrefix, strings.TrimSpace(strings.ToUpper(connectionName)))
	if v := os.Getenv(kType); v != "" {
		return strings.TrimSpace(v), nil
	}
	if strings.HasPrefix(dsn, c.ConnectionTypeS3+"://") {
		return c.ConnectionTypeS3, nil
	}
	u, err := dburl.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("unable to determine the type of connection %q, set %v: %w", connectionName, kType, err)
	}
	switch u.Driver {
	case "postgres":
		return c.ConnectionTypePostgres, nil
	case "snowflake":
		return c.ConnectionTypeSnowflake, nil
	}
	return "", fmt.Errorf("unsupported DSN scheme %q for connection %q", u.OriginalScheme, connectionName)
}

package actions

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/config"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/rdbms/shared"
)

// Connection names become part of environment variable names in 12-factor mode.
var validConnectionName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// connectionSchemes lists the DSN schemes accepted for each connection type.
var connectionSchemes = map[string][]string{
	constants.ConnectionTypePostgres:  {"postgres", "postgresql", "pgsql", "pg"},
	constants.ConnectionTypeSnowflake: {"snowflake", "sf"},
	constants.ConnectionTypeS3:        {constants.ConnectionTypeS3},
}

type ConnectionConfig struct {
	ConfigFile  ConnectionGetterSetter `errorTxt:"config store" mandatory:"yes"`
	LogicalName string                 `errorTxt:"connection name" mandatory:"yes"`
	Type        string
	ConnDetails ConnectionValidator
	Force       bool
	Out         io.Writer // defaults to os.Stdout
}

func (cfg *ConnectionConfig) out() io.Writer {
	if cfg.Out == nil {
		return os.Stdout
	}
	return cfg.Out
}

// SupportedConnectionTypes returns the connection types that can be added.
func SupportedConnectionTypes() []string {
	return []string{constants.ConnectionTypePostgres, constants.ConnectionTypeSnowflake, constants.ConnectionTypeS3}
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if !validConnectionName.MatchString(cfg.LogicalName) {
		return fmt.Errorf("connection name %q must start with a letter and contain only letters, digits and underscores", cfg.LogicalName)
	}
	schemes, ok := connectionSchemes[cfg.Type]
	if !ok {
		return fmt.Errorf("unsupported connection type %q, please use one of: %v", cfg.Type, SupportedConnectionTypes())
	}
	if cfg.ConnDetails == nil {
		return errors.New("missing connection details")
	}
	if err := cfg.ConnDetails.Parse(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	scheme, err := cfg.ConnDetails.GetScheme()
	if err != nil {
		return err
	}
	if !helper.StringInSlice(scheme, schemes) {
		return fmt.Errorf("DSN scheme %q does not match connection type %q", scheme, cfg.Type)
	}
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        cfg.Type,
		Data:        cfg.ConnDetails.GetMap(make(map[string]string)),
	}
	// Check for an existing saved connection.
	existing := &shared.ConnectionDetails{}
	err = cfg.ConfigFile.Get(cfg.LogicalName, existing)
	if err == nil && !cfg.Force {
		return fmt.Errorf("connection %q exists, use force to update the connection or remove it first", cfg.LogicalName)
	} else if err != nil && !config.IsKeyNotFound(err) {
		return err
	}
	if err = cfg.ConfigFile.Set(cfg.LogicalName, &connection); err != nil {
		return errors.Wrap(err, "error writing connections config file after adding")
	}
	fmt.Fprintf(cfg.out(), "Connection %q added\n", cfg.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.LogicalName); err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %v", cfg.LogicalName, err)
	}
	fmt.Fprintf(cfg.out(), "Connection %q removed\n", cfg.LogicalName)
	return nil
}

// RunConnectionList prints each saved connection with passwords redacted.
func RunConnectionList(cfg *ConnectionConfig) error {
	if cfg.ConfigFile == nil {
		return errors.New("missing config store")
	}
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(cfg.out(), "No connections configured")
		return nil
	}
	for _, k := range keys {
		d := shared.ConnectionDetails{}
		if err := cfg.ConfigFile.Get(k, &d); err != nil {
			return err
		}
		fmt.Fprintf(cfg.out(), "%v:\n%v\n", k, d)
	}
	return nil
}

package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relloyd/empetl/constants"
	"github.com/xo/dburl"
)

// ConnectionDetails is intended to hold credentials for a logical connection.
type ConnectionDetails struct {
	Type        string            `json:"type" errorTxt:"connection type" mandatory:"yes" yaml:"type"`
	LogicalName string            `json:"logicalName" errorTxt:"connection logical name" mandatory:"yes" yaml:"logicalName"`
	Data        map[string]string `json:"data" yaml:"data"`
}

// String redacts passwords and pretty-prints the contents of ConnectionDetails.
func (c ConnectionDetails) String() string {
	x := make([]string, 0, len(c.Data)+1)
	x = append(x, fmt.Sprintf("  type = %v", c.Type))
	if v, ok := c.Data[DefaultDsnConnectionKeyNames.Dsn]; ok && c.Type != constants.ConnectionTypeS3 { // if there's a database DSN...
		u, err := dburl.Parse(v)
		if err != nil {
			panic(fmt.Sprintf("unexpected error while parsing DSN: %v", err))
		}
		x = append(x, fmt.Sprintf("  dsn = %v", u.Redacted()))
	} else { // else there's no database DSN... (could be S3 connection)
		keys := make([]string, 0, len(c.Data))
		for k := range c.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := c.Data[k]
			if k == "password" {
				v = "xxxxx"
			}
			x = append(x, fmt.Sprintf("  %v = %v", k, v))
		}
	}
	return strings.Join(x, "\n")
}

// MustGetSysDateSql returns the SQL expression for the current timestamp in the database of type c.Type.
func (c ConnectionDetails) MustGetSysDateSql() string {
	return MustGetSysDateSql(c.Type)
}

// MustGetSysDateSql returns the SQL expression for the current timestamp for the given connection type.
func MustGetSysDateSql(connType string) string {
	switch connType {
	case constants.ConnectionTypePostgres, constants.ConnectionTypeMockPostgres:
		return "current_timestamp"
	case constants.ConnectionTypeSnowflake, constants.ConnectionTypeMockSnowflake:
		return "current_timestamp()"
	default:
		panic(fmt.Sprintf("unsupported database type %q in call to get SQL for current date", connType))
	}
}

// DBConnections is a set of logical connections keyed by name.
type DBConnections map[string]ConnectionDetails

// LoadConnection will load the supplied *c[connectionName], which is expected to be in c, using the interface
// to do the actual loading.
func (c *DBConnections) LoadConnection(i ConnectionGetter, connectionName string) error {
	conn, ok := (*c)[connectionName]
	if !ok {
		return fmt.Errorf("connection %q not found", connectionName)
	}
	d, err := i.LoadConnection(conn.LogicalName) // fetch new ConnectionDetails from config using the logicalName, not the connectionName!
	if err != nil {
		return err
	}
	(*c)[connectionName] = d // replace the connection with the loaded version
	return nil
}

package rdbms

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
	sf "github.com/snowflakedb/gosnowflake"
)

const snowflakeDsnPrefix = "snowflake://"

type SnowflakeConnectionDetails struct {
	Dsn       string // optional snowflake://... DSN, takes priority over the other fields.
	Account   string `errorTxt:"Snowflake account" mandatory:"yes"`
	DBName    string `errorTxt:"Snowflake db name" mandatory:"yes"`
	Schema    string `errorTxt:"Snowflake schema" mandatory:"yes"`
	User      string `errorTxt:"Snowflake username" mandatory:"yes"`
	Password  string `errorTxt:"Snowflake password" mandatory:"yes"`
	Warehouse string `errorTxt:"Snowflake warehouse"`
	RoleName  string `errorTxt:"Snowflake role name"`
}

func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		"xxxxxxx",
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

// Parse populates the fields from Dsn if it is set, else validates the fields and builds Dsn from them.
func (d *SnowflakeConnectionDetails) Parse() error {
	if d.Dsn != "" {
		cn, err := SnowflakeParseDSN(d.Dsn)
		if err != nil {
			return errors.Wrap(err, "invalid Snowflake DSN")
		}
		cn.Dsn = d.Dsn
		*d = *cn
		return nil
	}
	if err := helper.ValidateStructIsPopulated(d); err != nil {
		return err
	}
	dsn, err := SnowflakeGetDSN(d)
	if err != nil {
		return err
	}
	d.Dsn = dsn
	return nil
}

func (d *SnowflakeConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeSnowflake, nil
}

func (d SnowflakeConnectionDetails) GetMap(m map[string]string) map[string]string {
	return shared.DsnConnectionDetails{Dsn: d.Dsn}.GetMap(m)
}

// newSnowflakeConnection opens the Snowflake database connection specified in d.
func newSnowflakeConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	dsn := strings.TrimPrefix(d.Dsn, snowflakeDsnPrefix)
	conn := &shared.DbConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleColon},
		DbType: constants.ConnectionTypeSnowflake,
	}
	var err error
	conn.DbSql, err = sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening Snowflake connection")
	}
	if err = conn.DbSql.Ping(); err != nil {
		_ = conn.DbSql.Close()
		return nil, errors.Wrap(err, "error connecting to Snowflake")
	}
	log.Info("Successful database connection to Snowflake.")
	return conn, nil
}

// SnowflakeGetDSN constructs a DSN based on SnowflakeConnectionDetails.
// The prefix 'snowflake://' is added to the DSN.
func SnowflakeGetDSN(c *SnowflakeConnectionDetails) (string, error) {
	cfg := &sf.Config{
		Account:   c.Account,
		Database:  c.DBName,
		Schema:    c.Schema,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Role:      c.RoleName,
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", err
	}
	// Prefix with 'snowflake://'
	re := regexp.MustCompile("^" + snowflakeDsnPrefix)
	if !re.MatchString(dsn) { // if the prefix is missing...
		dsn = fmt.Sprintf("%v%v", snowflakeDsnPrefix, dsn)
	}
	return dsn, err
}

// SnowflakeParseDSN converts a Snowflake DSN into native connection details.
// The prefix 'snowflake://' is removed from the DSN if it exists.
func SnowflakeParseDSN(d string) (*SnowflakeConnectionDetails, error) {
	// Validate the DSN starts with 'snowflake://'
	if !strings.HasPrefix(d, snowflakeDsnPrefix) {
		return nil, errors.New("unsupported Snowflake DSN format")
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(d, snowflakeDsnPrefix))
	if err != nil {
		return nil, err
	}
	retval := &SnowflakeConnectionDetails{
		User:      cfg.User,
		Password:  cfg.Password,
		Schema:    cfg.Schema,
		DBName:    cfg.Database,
		Account:   cfg.Account,
		RoleName:  cfg.Role,
		Warehouse: cfg.Warehouse,
	}
	if cfg.Region != "" { // if region exists in the parsed config...
		// Add it to our account settings.
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}

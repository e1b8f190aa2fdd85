package rdbms

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/pkg/errors"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
)

const (
	postgresDriverName  = "pgx"
	postgresPingTimeout = 30 * time.Second
)

// newPostgresConnection opens the Postgres database specified by the DSN in d.
func newPostgresConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening database connection: ", d)
	conn := &shared.DbConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleDollar},
		DbType: constants.ConnectionTypePostgres,
	}
	var err error
	conn.DbSql, err = sql.Open(postgresDriverName, d.Dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening Postgres connection")
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresPingTimeout)
	defer cancel()
	if err = conn.DbSql.PingContext(ctx); err != nil {
		_ = conn.DbSql.Close()
		return nil, errors.Wrap(err, "error connecting to Postgres")
	}
	log.Info("Successful connection to: ", d)
	return conn, nil
}

package shared

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// DbConnection is a wrapper around Go native sql.DB.
// It also adds the DmlGenerator interface for use in components that output records to a database.
type DbConnection struct {
	DbSql  *sql.DB
	Dml    DmlGenerator
	DbType string
}

// Connector:

func (c *DbConnection) Begin() (Transacter, error) {
	if c.DbSql == nil {
		return nil, errors.New("DbConnection was not configured correctly: DbSql is missing")
	}
	tx, err := c.DbSql.Begin()
	return &DbTx{txSql: tx}, err
}

func (c *DbConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *DbConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *DbConnection) Query(query string, args ...interface{}) (Rows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *DbConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	r, err := c.DbSql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &DbRows{rowsSql: r}, nil
}

func (c *DbConnection) Close() {
	_ = c.DbSql.Close()
}

func (c *DbConnection) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *DbConnection) GetType() string {
	return c.DbType
}

// Transacter:

type DbTx struct {
	txSql *sql.Tx
}

func (t *DbTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *DbTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.txSql.ExecContext(ctx, query, args...)
}

func (t *DbTx) Commit() error {
	return t.txSql.Commit()
}

func (t *DbTx) Rollback() error {
	return t.txSql.Rollback()
}

// Rows:

type DbRows struct {
	rowsSql *sql.Rows
}

func (r *DbRows) Close() error {
	return r.rowsSql.Close()
}

func (r *DbRows) Columns() ([]string, error) {
	return r.rowsSql.Columns()
}

func (r *DbRows) Err() error {
	return r.rowsSql.Err()
}

func (r *DbRows) Next() bool {
	return r.rowsSql.Next()
}

func (r *DbRows) Scan(dest ...interface{}) error {
	return r.rowsSql.Scan(dest...)
}

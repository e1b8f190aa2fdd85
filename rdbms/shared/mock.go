package shared

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/constants"
)

// MockExec is a statement captured by MockConnector.
type MockExec struct {
	Sql  string
	Args []interface{}
}

// MockResultSet is a canned result served by MockConnector.QueryContext.
type MockResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

type mockQueryResult struct {
	match string
	rs    *MockResultSet
	err   error
}

// MockConnector is an in-memory Connector.
// It records every statement executed and serves canned rows to queries whose text contains a registered substring.
type MockConnector struct {
	DbType         string
	Dml            DmlGenerator
	RowsAffectedFn func(sql string, args []interface{}) int64 // defaults to len(args)
	ExecErr        error                                     // returned by every Exec when set
	mu             sync.Mutex
	execs          []MockExec
	queries        []mockQueryResult
	commits        int
	rollbacks      int
	closed         bool
}

// NewMockConnection returns a MockConnector of the given type using the text batch DML generator.
func NewMockConnection(dbType string) *MockConnector {
	bindStyle := BindStyleColon
	if dbType == constants.ConnectionTypePostgres || dbType == constants.ConnectionTypeMockPostgres {
		bindStyle = BindStyleDollar
	}
	return &MockConnector{DbType: dbType, Dml: &DmlGeneratorTxtBatch{BindStyle: bindStyle}}
}

// AddQueryResult registers rows to return for queries containing match.
func (c *MockConnector) AddQueryResult(match string, columns []string, rows [][]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, mockQueryResult{match: match, rs: &MockResultSet{Columns: columns, Rows: rows}})
}

// AddQueryError registers an error to return for queries containing match.
func (c *MockConnector) AddQueryError(match string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, mockQueryResult{match: match, err: err})
}

// GetExecs returns a copy of the statements executed so far.
func (c *MockConnector) GetExecs() []MockExec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MockExec(nil), c.execs...)
}

func (c *MockConnector) GetCommitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

func (c *MockConnector) Begin() (Transacter, error) {
	return &MockTx{c: c}, nil
}

func (c *MockConnector) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *MockConnector) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ExecErr != nil {
		return nil, c.ExecErr
	}
	c.execs = append(c.execs, MockExec{Sql: query, Args: append([]interface{}(nil), args...)})
	n := int64(len(args))
	if c.RowsAffectedFn != nil {
		n = c.RowsAffectedFn(query, args)
	}
	return MockResult{rowsAffected: n}, nil
}

func (c *MockConnector) Query(query string, args ...interface{}) (Rows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *MockConnector) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.queries {
		if strings.Contains(query, q.match) {
			if q.err != nil {
				return nil, q.err
			}
			return &MockRows{rs: q.rs, idx: -1}, nil
		}
	}
	return nil, errors.Errorf("mock connection has no result registered for query: %v", query)
}

func (c *MockConnector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockConnector) GetType() string {
	return c.DbType
}

func (c *MockConnector) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

// MockTx executes against the parent MockConnector.
type MockTx struct {
	c *MockConnector
}

func (t *MockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.c.ExecContext(context.Background(), query, args...)
}

func (t *MockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.c.ExecContext(ctx, query, args...)
}

func (t *MockTx) Commit() error {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.commits++
	return nil
}

func (t *MockTx) Rollback() error {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.rollbacks++
	return nil
}

type MockResult struct {
	rowsAffected int64
}

func (r MockResult) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported")
}

func (r MockResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// MockRows iterates a MockResultSet.
type MockRows struct {
	rs  *MockResultSet
	idx int
}

func (r *MockRows) Columns() ([]string, error) {
	return append([]string(nil), r.rs.Columns...), nil
}

func (r *MockRows) Next() bool {
	r.idx++
	return r.idx < len(r.rs.Rows)
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.idx < 0 || r.idx >= len(r.rs.Rows) {
		return errors.New("Scan called without a current row")
	}
	row := r.rs.Rows[r.idx]
	if len(dest) != len(row) {
		return errors.Errorf("expected %v destination arguments in Scan, not %v", len(row), len(dest))
	}
	for i, v := range row {
		p, ok := dest[i].(*interface{})
		if !ok {
			return errors.Errorf("mock Scan supports *interface{} destinations only, got %T", dest[i])
		}
		*p = v
	}
	return nil
}

func (r *MockRows) Err() error {
	return nil
}

func (r *MockRows) Close() error {
	return nil
}

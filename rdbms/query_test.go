package rdbms_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms"
	"github.com/relloyd/empetl/rdbms/shared"
)

type testResultHandler struct {
	header []interface{}
	rows   [][]interface{}
}

func (h *testResultHandler) HandleHeader(i []interface{}) error {
	h.header = i
	return nil
}

func (h *testResultHandler) HandleRow(i []interface{}) error {
	h.rows = append(h.rows, i)
	return nil
}

func TestSqlQuery(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	db := shared.NewMockConnection(constants.ConnectionTypeMockPostgres)
	db.AddQueryResult("from emp", []string{"emp_id", "salary"}, [][]interface{}{{"1", "100"}, {"2", "200"}})
	// Test 1 - header and rows are delivered in order.
	h := &testResultHandler{}
	if err := rdbms.SqlQuery(context.Background(), log, db, "select emp_id, salary from emp where x = $1", h, 1); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(h.header, []interface{}{"emp_id", "salary"}) {
		t.Fatalf("unexpected header %v", h.header)
	}
	if len(h.rows) != 2 || h.rows[1][1] != "200" {
		t.Fatalf("unexpected rows %v", h.rows)
	}
	// Test 2 - cancelled contexts abort.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rdbms.SqlQuery(ctx, log, db, "select emp_id, salary from emp", &testResultHandler{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

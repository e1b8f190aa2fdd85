package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
)

func TestNewSqlQueryWithArgs(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	db := shared.NewMockConnection(c.ConnectionTypeMockPostgres)
	db.AddQueryResult("from emp_sal", []string{"emp_id", "salary"}, [][]interface{}{
		{"1", int64(100)},
		{"2", nil},
	})
	log.Info("Test 1 - confirm rows are produced with field names from the columns...")
	waiter := &MockComponentWaiter{}
	out, controlChan := NewSqlQueryWithArgs(&SqlQueryWithArgsConfig{
		Log:         log,
		Name:        "Test SqlQueryWithArgs",
		Db:          db,
		Sqltext:     "select emp_id, salary from emp_sal where updated_at >= $1",
		Args:        []interface{}{"2023-05-12"},
		WaitCounter: waiter,
	})
	if controlChan == nil {
		t.Fatal("SqlQueryWithArgs returned a nil controlChan")
	}
	recs := DrainRecords(out)
	if len(recs) != 2 {
		t.Fatalf("expected 2 rows, got %v", len(recs))
	}
	checkVal(t, recs[0].GetData("emp_id"), "1")
	checkVal(t, recs[0].GetData("salary"), int64(100))
	if recs[1].GetData("salary") != nil {
		t.Fatal("expected nil salary in row 2")
	}
	deadline := time.Now().Add(time.Second)
	for waiter.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the wait counter to return to 0, got %v", waiter.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSqlQueryWithReplaceLowerCase(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	db := shared.NewMockConnection(c.ConnectionTypeMockSnowflake)
	cols := []string{"EMP_ID", "NAME"}
	db.AddQueryResult("from dwh.emp_dim", cols, [][]interface{}{{"1", "Ann"}})
	out, _ := NewSqlQueryWithReplace(&SqlQueryWithReplace{
		Log:                 log,
		Name:                "Test SqlQueryWithReplace",
		Db:                  db,
		Sqltext:             "select emp_id, name from <SCHEMA>.<TABLE>",
		Replacements:        map[string]string{"<SCHEMA>": "dwh", "<TABLE>": "emp_dim"},
		LowerCaseFieldNames: true,
	})
	recs := DrainRecords(out)
	if len(recs) != 1 {
		t.Fatalf("expected 1 row, got %v", len(recs))
	}
	checkVal(t, recs[0].GetData("name"), "Ann")
	// Lower casing must not write through to the caller's column list.
	if cols[0] != "EMP_ID" || cols[1] != "NAME" {
		t.Fatalf("column list was modified: %v", cols)
	}
}

func TestNewSqlQueryWithArgsError(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	db := shared.NewMockConnection(c.ConnectionTypeMockPostgres)
	db.AddQueryError("emp_sal", errors.New("relation does not exist"))
	panicHandler, msgs := newTestPanicHandler()
	_, _ = NewSqlQueryWithArgs(&SqlQueryWithArgsConfig{
		Log:            log,
		Name:           "Test SqlQueryWithArgs error",
		Db:             db,
		Sqltext:        "select * from emp_sal",
		PanicHandlerFn: panicHandler,
	})
	msg := <-msgs
	if !strings.Contains(msg, "relation does not exist") {
		t.Fatalf("unexpected panic message: %v", msg)
	}
}

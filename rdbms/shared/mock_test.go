package shared

import (
	"context"
	"testing"

	"github.com/relloyd/empetl/constants"
)

func TestMockConnector(t *testing.T) {
	db := NewMockConnection(constants.ConnectionTypeSnowflake)
	db.AddQueryResult("from dwh.emp_dim", []string{"EMP_ID"}, [][]interface{}{{"1"}, {"2"}})
	// Test 1 - canned rows are served.
	rows, err := db.QueryContext(context.Background(), "select emp_id from dwh.emp_dim")
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 rows; got %v", n)
	}
	// Test 1a - Columns returns a copy of the registered columns.
	cols, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	cols[0] = "changed"
	again, _ := rows.Columns()
	if again[0] != "EMP_ID" {
		t.Fatalf("expected registered columns to be unchanged; got %v", again)
	}
	// Test 2 - unknown queries fail.
	if _, err := db.Query("select 1"); err == nil {
		t.Fatal("expected error for unregistered query")
	}
	// Test 3 - execs are captured.
	tx, _ := db.Begin()
	res, err := tx.Exec("delete from x where a = :1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if ra, _ := res.RowsAffected(); ra != 1 {
		t.Fatalf("expected 1 row affected; got %v", ra)
	}
	_ = tx.Commit()
	if len(db.GetExecs()) != 1 || db.GetCommitCount() != 1 {
		t.Fatalf("unexpected mock state: execs = %v; commits = %v", db.GetExecs(), db.GetCommitCount())
	}
}

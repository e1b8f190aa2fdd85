package shared

import (
	"regexp"
	"testing"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
)

func TestSnowflakeSqlInsert(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	log.Info("Starting tests for SQL INSERT...")

	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set("col1", "a")
	omKeys.Set("col2", "b")
	omCols := ordered_map.NewOrderedMap()
	omCols.Set("col3", "c")

	db := NewMockConnection(constants.ConnectionTypeSnowflake)
	o := db.GetDmlGenerator().NewInsertGenerator(&SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    "",
		OutputTable:     "t2",
		TargetKeyCols:   omKeys,
		TargetOtherCols: omCols})

	var batchIsFull bool
	var err error

	// Test 1 - create new batch of values size 2.
	o.InitBatch(2)
	_, err = o.AddValuesToBatch([]interface{}{"x", "y", 123}) // first row should succeed.
	if err != nil {
		t.Fatal(err)
	}
	batchIsFull, err = o.AddValuesToBatch([]interface{}{"p", "q", 2}) // second row should succeed.
	if err != nil {
		t.Fatal(err)
	}
	if !batchIsFull {
		t.Fatal("The batch *should* be full but it is not.")
	}
	if _, err = o.AddValuesToBatch([]interface{}{"r", "s", 3}); err == nil {
		t.Fatal("expected error adding to a full batch")
	}

	// Test 2 - wrong number of values.
	o.InitBatch(1)
	_, err = o.AddValuesToBatch([]interface{}{"a", "b", 456, 789})
	if err == nil {
		t.Fatal("There should have been an error. Incorrect number of values deliberately supplied in batch.")
	}

	// Test 3 - single row.
	o.InitBatch(1)
	if _, err = o.AddValuesToBatch([]interface{}{"a", "b", 456}); err != nil {
		t.Fatal(err)
	}
	if len(o.GetValues()) != 3 {
		t.Fatal("Error, incorrect number of args.")
	}
	re := regexp.MustCompile("[\t\r\n\f]")
	expected := `insert into t2 (a,b,c) values ( :1,:2,:3 )`
	got := re.ReplaceAllString(o.GetStatement(), " ")
	if got != expected {
		t.Fatalf("Bad SQL INSERT generated: expected = '%v'; got = '%v'", expected, got)
	}

	// Test 4 - multiple rows in a batch gives good SQL, and a partial batch regenerates it.
	o.InitBatch(3)
	_, _ = o.AddValuesToBatch([]interface{}{"a", "b", 456})
	_, _ = o.AddValuesToBatch([]interface{}{"c", "d", 789})
	expected = `insert into t2 (a,b,c) values ( :1,:2,:3 ),( :4,:5,:6 )`
	got = re.ReplaceAllString(o.GetStatement(), " ")
	if expected != got {
		t.Fatalf("Bad SQL INSERT generated: expected = '%v'; got = '%v'", expected, got)
	}
	if o.GetRowCount() != 2 {
		t.Fatalf("expected 2 rows in batch; got %v", o.GetRowCount())
	}
}

func TestSqlInsertWithLiteralColumns(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	keys := ordered_map.NewOrderedMap()
	keys.Set("emp_id", "emp_id")
	cols := ordered_map.NewOrderedMap()
	cols.Set("salary", "salary")
	literals := ordered_map.NewOrderedMap()
	literals.Set("is_current", "true")
	literals.Set("valid_from", "current_timestamp")

	// Test 1 - postgres binds with literal values appended to each row.
	db := NewMockConnection(constants.ConnectionTypePostgres)
	o := db.GetDmlGenerator().NewInsertGenerator(&SqlStatementGeneratorConfig{
		Log:               log,
		OutputSchema:      "dwh",
		OutputTable:       "emp_dim",
		TargetKeyCols:     keys,
		TargetOtherCols:   cols,
		TargetLiteralCols: literals,
	})
	o.InitBatch(2)
	_, _ = o.AddValuesToBatch([]interface{}{"1", "100"})
	_, _ = o.AddValuesToBatch([]interface{}{"2", "200"})
	expected := `insert into dwh.emp_dim (emp_id,salary,is_current,valid_from) values ( $1,$2,true,current_timestamp ),( $3,$4,true,current_timestamp )`
	if got := o.GetStatement(); got != expected {
		t.Fatalf("Bad SQL INSERT generated: expected = '%v'; got = '%v'", expected, got)
	}
}

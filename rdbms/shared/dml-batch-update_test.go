package shared

import (
	"testing"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
)

func TestSnowflakeSqlUpdateByKeyList(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	log.Info("Starting tests for SQL UPDATE...")

	keys := ordered_map.NewOrderedMap()
	keys.Set("emp_id", "emp_id")
	set := ordered_map.NewOrderedMap()
	set.Set("is_current", "false")
	set.Set("valid_to", "current_timestamp()")

	db := NewMockConnection(constants.ConnectionTypeSnowflake)
	o := db.GetDmlGenerator().NewUpdateGenerator(&SqlStatementGeneratorConfig{
		Log:               log,
		OutputSchema:      "dwh",
		OutputTable:       "emp_dim",
		TargetKeyCols:     keys,
		TargetLiteralCols: set,
		UpdatePredicate:   "is_current = true",
	})

	// Test 1 - too many values supplied per row.
	o.InitBatch(2)
	if _, err := o.AddValuesToBatch([]interface{}{"5", "6"}); err == nil {
		t.Fatal("Missing error - too many values supplied deliberately, but there was no failure.")
	}

	// Test 2 - two keys fill the batch.
	o.InitBatch(2)
	if _, err := o.AddValuesToBatch([]interface{}{"5"}); err != nil {
		t.Fatal(err)
	}
	full, err := o.AddValuesToBatch([]interface{}{"6"})
	if err != nil {
		t.Fatal(err)
	}
	if !full {
		t.Fatal("The batch *should* be full but it is not.")
	}
	expected := `update dwh.emp_dim set is_current = false, valid_to = current_timestamp() where is_current = true and emp_id in (:1,:2)`
	if got := o.GetStatement(); got != expected {
		t.Fatalf("Bad SQL UPDATE generated: expected = '%v'; got = '%v'", expected, got)
	}
	if len(o.GetValues()) != 2 || o.GetValues()[0] != "5" {
		t.Fatalf("unexpected values: %v", o.GetValues())
	}

	// Test 3 - a smaller final batch regenerates the bind list.
	o.InitBatch(2)
	_, _ = o.AddValuesToBatch([]interface{}{"7"})
	expected = `update dwh.emp_dim set is_current = false, valid_to = current_timestamp() where is_current = true and emp_id in (:1)`
	if got := o.GetStatement(); got != expected {
		t.Fatalf("Bad SQL UPDATE generated: expected = '%v'; got = '%v'", expected, got)
	}
}

func TestSqlUpdateRequiresSingleKey(t *testing.T) {
	log := logger.NewLogger("empetl", "info", false)
	keys := ordered_map.NewOrderedMap()
	keys.Set("a", "a")
	keys.Set("b", "b")
	set := ordered_map.NewOrderedMap()
	set.Set("c", "1")
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for composite key")
		}
	}()
	db := NewMockConnection(constants.ConnectionTypeSnowflake)
	db.GetDmlGenerator().NewUpdateGenerator(&SqlStatementGeneratorConfig{
		Log:               log,
		OutputTable:       "t",
		TargetKeyCols:     keys,
		TargetLiteralCols: set,
	})
}

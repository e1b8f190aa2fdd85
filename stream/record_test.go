package stream

import (
	"reflect"
	"testing"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/empetl/logger"
)

func TestRecord_RecordIsNil(t *testing.T) {
	r1 := NewRecord()
	if r1.RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected a new record (not nil)")
	}
	r2 := Record{}
	if !r2.RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected zero struct and nil record")
	}
}

func TestRecord_GetSortedDataMapKeys(t *testing.T) {
	// Test that record keys are returned in alphabetical order.
	r1 := NewRecord()
	r1.SetData("keyA", "valueA")
	r1.SetData("keyC", "valueC")
	r1.SetData("keyB", "valueB")
	got := r1.GetSortedDataMapKeys()
	expected := []string{"keyA", "keyB", "keyC"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("TestRecord_GetSortedDataMapKeys failed: expected = %v; got = %v", expected, got)
	}
}

func TestRecord_DataCanJoinByKeyFields(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	keys := om.NewOrderedMap()
	keys.Set("emp_id", "EMP_ID")
	a := NewRecordFromStringMap(map[string]string{"emp_id": "5"})
	b := NewRecord()
	b.SetData("EMP_ID", int64(6))
	// Test 1 - less than.
	if got := a.DataCanJoinByKeyFields(log, b, keys); got != -1 {
		t.Fatalf("expected -1; got %v", got)
	}
	// Test 2 - equal, across types.
	b.SetData("EMP_ID", int64(5))
	if got := a.DataCanJoinByKeyFields(log, b, keys); got != 0 {
		t.Fatalf("expected 0; got %v", got)
	}
	// Test 3 - compare values.
	a.SetData("salary", "100")
	b.SetData("SALARY", "101")
	cmp := om.NewOrderedMap()
	cmp.Set("salary", "SALARY")
	if a.DataIsDeepEqual(log, b, cmp) {
		t.Fatal("expected records to differ")
	}
}

func TestMergeDataStreams(t *testing.T) {
	a := NewRecordFromStringMap(map[string]string{"emp_id": "1", "salary": "10"})
	b := NewRecordFromStringMap(map[string]string{"emp_id": "1", "dept": "ops"})
	// Test 1 - overwrite disallowed.
	if _, err := MergeDataStreams(a, b, false); err == nil {
		t.Fatal("expected error merging duplicate field")
	}
	// Test 2 - overwrite allowed.
	m, err := MergeDataStreams(a, b, true)
	if err != nil {
		t.Fatal(err)
	}
	if m.GetDataLen() != 3 || m.GetData("dept") != "ops" {
		t.Fatalf("unexpected merged record %v", m.GetDataMap())
	}
}

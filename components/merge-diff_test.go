package components

import (
	"strings"
	"testing"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
)

func TestMergeDiff(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	chanOld := NewRecordChanFromStringMaps([]map[string]string{
		{"emp_id": "1", "name": "Ann", "salary": "100"}, // identical
		{"emp_id": "2", "name": "Bob", "salary": "200"}, // changed
		{"emp_id": "4", "name": "Dan", "salary": "400"}, // deleted
	})
	chanNew := NewRecordChanFromStringMaps([]map[string]string{
		{"emp_id": "1", "name": "Ann", "salary": "100"},
		{"emp_id": "2", "name": "Bob", "salary": "250"},
		{"emp_id": "3", "name": "Cat", "salary": "300"}, // new
		{"emp_id": "5", "name": "Eve", "salary": "500"}, // new after old is exhausted
	})
	// Test 1 - confirm NEW, CHANGED, DELETED, IDENTICAL rows are output.
	log.Info("Test 1 - confirm NEW, CHANGED, DELETED, IDENTICAL rows are output...")
	out, _ := NewMergeDiff(&MergeDiffConfig{
		Log:                 log,
		Name:                "MergeDiff test",
		ChanOld:             chanOld,
		ChanNew:             chanNew,
		JoinKeys:            helper.StringSliceToOrderedMap([]string{"emp_id"}),
		CompareKeys:         helper.StringSliceToOrderedMap([]string{"name", "salary"}),
		OutputIdenticalRows: true,
	})
	got := make([]string, 0)
	for _, rec := range DrainRecords(out) {
		got = append(got, rec.GetDataAsStringUseUtcTime(log, "emp_id")+rec.GetDataAsStringUseUtcTime(log, c.DiffStatusFieldName))
	}
	checkVal(t, strings.Join(got, ","), "1I,2C,3N,4D,5N")
}

func TestMergeDiffSkipsIdentical(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	out, _ := NewMergeDiff(&MergeDiffConfig{
		Log:               log,
		Name:              "MergeDiff test",
		ChanOld:           NewRecordChanFromStringMaps([]map[string]string{{"emp_id": "1", "name": "Ann"}}),
		ChanNew:           NewRecordChanFromStringMaps([]map[string]string{{"emp_id": "1", "name": "Ann"}}),
		JoinKeys:          helper.StringSliceToOrderedMap([]string{"emp_id"}),
		CompareKeys:       helper.StringSliceToOrderedMap([]string{"name"}),
		ResultFlagKeyName: "flag",
	})
	if recs := DrainRecords(out); len(recs) != 0 {
		t.Fatalf("expected identical rows to be suppressed, got %v", len(recs))
	}
}

func TestMergeDiffUnsortedInput(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	panicHandler, msgs := newTestPanicHandler()
	waiter := &MockComponentWaiter{}
	out, _ := NewMergeDiff(&MergeDiffConfig{
		Log:            log,
		Name:           "MergeDiff unsorted",
		ChanOld:        NewRecordChanFromStringMaps(nil),
		ChanNew:        NewRecordChanFromStringMaps([]map[string]string{{"emp_id": "2"}, {"emp_id": "1"}}),
		JoinKeys:       helper.StringSliceToOrderedMap([]string{"emp_id"}),
		PanicHandlerFn: panicHandler,
		WaitCounter:    waiter,
	})
	msg := <-msgs
	if !strings.Contains(msg, "not sorted") {
		t.Fatalf("unexpected panic message: %v", msg)
	}
	if len(out) > 1 {
		t.Fatalf("expected at most one row before the panic, got %v", len(out))
	}
}

package components

import (
	"testing"
	"time"

	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stream"
)

func TestNewFilterRows(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	in := NewRecordChanFromStringMaps([]map[string]string{
		{"emp_id": "1", "dept": "finance"},
		{"emp_id": "2", "dept": "hr"},
		{"emp_id": "3", "dept": "finance"},
	})
	out, _ := NewFilterRows(&FilterRowsConfig{
		Log:            log,
		Name:           "Test FilterRows",
		InputChan:      in,
		FilterType:     FilterRowsJsonLogic,
		FilterMetadata: `{ "==" : [ { "var" : "dept" }, "finance" ] }`,
	})
	recs := DrainRecords(out)
	if len(recs) != 2 {
		t.Fatalf("expected 2 rows, got %v", len(recs))
	}
	checkVal(t, recs[0].GetData("emp_id"), "1")
	checkVal(t, recs[1].GetData("emp_id"), "3")
}

func TestFilterRowsJsonLogic(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	// Test 1
	log.Info("Test 1, FilterRows->JsonLogic, apply JsonLogic")
	fnJsonLogic, err := setupJsonLogicFilter(log, `{ "==" : [ { "var" : "from" }, { "var" : "to" } ] }`)
	if err != nil {
		t.Fatalf("Test 1 failed: %v", err)
	}
	rec := stream.NewRecord()
	rec.SetData("from", "8")
	rec.SetData("to", "8")
	filteredRec, _ := fnJsonLogic(rec)
	if filteredRec.RecordIsNil() { // if the record failed the filter...
		t.Fatalf("Test 1, FilterRows->JsonLogic did not return a record as expected: %v did not pass", rec)
	}
	if filteredRec.GetDataAsStringUseUtcTime(log, "from") != "8" {
		t.Fatal("Test 1, FilterRows->JsonLogic did not return the supplied input record")
	}
	// Test 2
	log.Info("Test 2, FilterRows->JsonLogic, supply Times for equality check")
	fnJsonLogic, err = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "dateFrom" }, { "var" : "dateTo" } ] }`)
	if err != nil {
		t.Fatalf("Test 2 failed: %v", err)
	}
	rec2 := stream.NewRecord()
	expectedTime := time.Date(1900, 1, 1, 12, 0, 0, 1, time.UTC)
	rec2.SetData("dateFrom", expectedTime)
	rec2.SetData("dateTo", expectedTime)
	if filteredRec2, _ := fnJsonLogic(rec2); filteredRec2.RecordIsNil() {
		t.Fatalf("Test 2, FilterRows->JsonLogic did not return a record as expected: %v did not pass", rec2)
	}
	// Test 3
	log.Info("Test 3, FilterRows->JsonLogic, record fails the rule")
	rec3 := stream.NewRecord()
	rec3.SetData("from", "1")
	rec3.SetData("to", "2")
	fnJsonLogic, _ = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "from" }, { "var" : "to" } ] }`)
	if filteredRec3, _ := fnJsonLogic(rec3); !filteredRec3.RecordIsNil() {
		t.Fatal("Test 3, FilterRows->JsonLogic returned a record that should have been filtered out")
	}
}

func TestValidateFilter(t *testing.T) {
	log := logger.NewLogger("empetl", "error", true)
	if err := ValidateFilter(log, FilterRowsJsonLogic, `{ "==" : [1, 1] }`); err != nil {
		t.Fatal("unexpected error: ", err)
	}
	if err := ValidateFilter(log, FilterRowsJsonLogic, `not json`); err == nil {
		t.Fatal("expected an error for an invalid rule")
	}
	if err := ValidateFilter(log, "Unknown", ``); err == nil {
		t.Fatal("expected an error for an unknown filter type")
	}
}

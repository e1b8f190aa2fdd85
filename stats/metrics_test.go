package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveTask("ETL_Dag", "extract_hr", "success", time.Second)
	m.ObserveTask("ETL_Dag", "extract_hr", "success", 2*time.Second)
	m.ObserveTask("ETL_Dag", "snowflake_insert_task", "skipped", 0)
	if got := testutil.ToFloat64(m.taskRuns.WithLabelValues("ETL_Dag", "extract_hr", "success")); got != 2 {
		t.Fatalf("expected 2 successful task runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.taskRuns.WithLabelValues("ETL_Dag", "snowflake_insert_task", "skipped")); got != 1 {
		t.Fatalf("expected 1 skipped task run, got %v", got)
	}
	end := time.Date(2023, 5, 12, 1, 0, 0, 0, time.UTC)
	m.ObserveDagRun("ETL_Dag", "success", true, end)
	m.ObserveDagRun("ETL_Dag", "failed", false, end.Add(time.Hour))
	if got := testutil.ToFloat64(m.dagLastSuccess.WithLabelValues("ETL_Dag")); got != float64(end.Unix()) {
		t.Fatalf("expected last success %v, got %v", end.Unix(), got)
	}
	if got := testutil.ToFloat64(m.dagRuns.WithLabelValues("ETL_Dag", "failed")); got != 1 {
		t.Fatalf("expected 1 failed dag run, got %v", got)
	}
	m.AddRowsWritten("ETL_Dag", "insert", 3)
	m.AddRowsWritten("ETL_Dag", "insert", 0)
	if got := testutil.ToFloat64(m.rowsWrittenTotals.WithLabelValues("ETL_Dag", "insert")); got != 3 {
		t.Fatalf("expected 3 rows inserted, got %v", got)
	}
	n, err := testutil.GatherAndCount(m.Registry)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("expected metrics to be gathered from the registry")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveTask("d", "t", "success", time.Second)
	m.ObserveDagRun("d", "success", true, time.Now())
	m.AddRowsWritten("d", "insert", 1)
}

package actions

import (
	"context"
	"fmt"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/empetl/components"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/relloyd/empetl/transform"
)

// newUpdateTask returns a task that closes the current dimension rows for each ID in ids_to_update.
func newUpdateTask(cfg *EtlConfig, deps *EtlDeps) transform.TaskFunc {
	return func(ctx context.Context, ti *transform.TaskInstance) error {
		v, err := ti.XCom.PullRequired(c.TaskIdJoinAndDetect, c.XComKeyIdsToUpdate)
		if err != nil {
			return err
		}
		ids, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string for %v, got %T", c.XComKeyIdsToUpdate, v)
		}
		rows := make([]map[string]string, 0)
		for _, id := range parseIdsToUpdate(ids) {
			rows = append(rows, map[string]string{DimKeyColumn: id})
		}
		gen := deps.WarehouseConnector.GetDmlGenerator().NewUpdateGenerator(&shared.SqlStatementGeneratorConfig{
			Log:               ti.Log,
			OutputSchema:      cfg.TargetSchema,
			OutputTable:       cfg.TargetTable,
			TargetKeyCols:     helper.StringSliceToOrderedMap([]string{DimKeyColumn}),
			TargetLiteralCols: literalsToOrderedMap(dimUpdateLiterals),
			UpdatePredicate:   dimCurrentPredicate,
		})
		n, err := execDml(ctx, ti, deps.WarehouseConnector, gen, rows, []string{DimKeyColumn}, cfg.BatchSize)
		if err != nil {
			return err
		}
		ti.Metrics.AddRowsWritten(ti.DagID, "update", n)
		ti.Log.Info("closed ", n, " dimension rows for ", len(rows), " ids")
		return nil
	}
}

// newInsertTask returns a task that inserts rows_to_insert as current dimension rows.
// Absent or empty rows are a no-op since the task may run after the update branch without any inserts.
func newInsertTask(cfg *EtlConfig, deps *EtlDeps) transform.TaskFunc {
	return func(ctx context.Context, ti *transform.TaskInstance) error {
		v, present, err := ti.XComPull(c.TaskIdJoinAndDetect, c.XComKeyRowsToInsert)
		if err != nil {
			return err
		}
		var rows []map[string]string
		if present && v != nil {
			var ok bool
			if rows, ok = v.([]map[string]string); !ok {
				return fmt.Errorf("expected rows for %v, got %T", c.XComKeyRowsToInsert, v)
			}
		}
		if len(rows) == 0 {
			ti.Log.Info("no rows to insert")
			return nil
		}
		gen := deps.WarehouseConnector.GetDmlGenerator().NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
			Log:               ti.Log,
			OutputSchema:      cfg.TargetSchema,
			OutputTable:       cfg.TargetTable,
			TargetKeyCols:     helper.StringSliceToOrderedMap([]string{DimKeyColumn}),
			TargetOtherCols:   helper.StringSliceToOrderedMap(DimAttrColumns),
			TargetLiteralCols: literalsToOrderedMap(dimInsertLiterals),
		})
		n, err := execDml(ctx, ti, deps.WarehouseConnector, gen, rows, DimInsertColumns, cfg.BatchSize)
		if err != nil {
			return err
		}
		ti.Metrics.AddRowsWritten(ti.DagID, "insert", n)
		ti.Log.Info("inserted ", n, " dimension rows")
		return nil
	}
}

// parseIdsToUpdate splits ids on commas and trims spaces.
// Blank IDs are kept as "" so they bind to a value that matches nothing.
func parseIdsToUpdate(ids string) []string {
	return helper.CsvToStringSliceTrimSpaces(ids)
}

// execDml runs gen over rows in batches inside one transaction and returns the rows affected.
func execDml(ctx context.Context, ti *transform.TaskInstance, db shared.Connector, gen shared.SqlStmtTxtBatcher, rows []map[string]string, fields []string, batchSize int) (int64, error) {
	g := ti.NewStepGroup(ctx)
	defer g.Close()
	stepName := ti.TaskID + " exec"
	out, ctl := components.NewSqlExec(&components.SqlExecConfig{
		Log:            ti.Log,
		Name:           stepName,
		Ctx:            g.Context(),
		InputChan:      components.NewRecordChanFromStringMaps(rows),
		OutputDb:       db,
		Generator:      gen,
		ValueFields:    fields,
		BatchSize:      batchSize,
		StepWatcher:    g.StepWatcher(stepName),
		WaitCounter:    g.Waiter(stepName),
		PanicHandlerFn: g.PanicHandler(),
	})
	g.AddStep(stepName, ctl)
	recs, err := g.Collect(out)
	if err != nil {
		return 0, err
	}
	if len(recs) != 1 {
		return 0, fmt.Errorf("expected 1 result from %v, got %v", stepName, len(recs))
	}
	n, _ := recs[0].GetData(components.Defaults.ChanField4RowsAffected).(int64)
	return n, nil
}

func literalsToOrderedMap(literals [][2]string) *om.OrderedMap {
	retval := om.NewOrderedMap()
	for _, l := range literals {
		retval.Set(l[0], l[1])
	}
	return retval
}

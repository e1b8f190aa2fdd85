package actions

import (
	"context"

	"github.com/relloyd/empetl/components"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stream"
	"github.com/relloyd/empetl/transform"
)

// newDiffTask returns a task that joins the two extracts, compares them with the current dimension rows and
// pushes the work for the update and insert tasks.
//
// ids_to_update is always pushed: the changed emp_ids as a sorted CSV string, or "" if nothing changed.
// rows_to_insert is only pushed when there are new or changed rows.
func newDiffTask(cfg *EtlConfig, deps *EtlDeps) transform.TaskFunc {
	return func(ctx context.Context, ti *transform.TaskInstance) error {
		g := ti.NewStepGroup(ctx)
		defer g.Close()
		log := ti.Log
		keys := []string{DimKeyColumn}
		readCsv := func(stepName, key string) chan stream.Record {
			out, ctl := components.NewS3CsvInput(&components.S3CsvInputConfig{
				Log:            log,
				Name:           stepName,
				Ctx:            g.Context(),
				Client:         deps.S3Client,
				BucketName:     cfg.S3Bucket,
				BucketPrefix:   cfg.S3Prefix,
				Region:         cfg.S3Region,
				Key:            key,
				SortFields:     keys,
				StepWatcher:    g.StepWatcher(stepName),
				WaitCounter:    g.Waiter(stepName),
				PanicHandlerFn: g.PanicHandler(),
			})
			g.AddStep(stepName, ctl)
			return out
		}
		hr := readCsv("read hr", cfg.HrKey)
		finance := readCsv("read finance", cfg.FinanceKey)
		// Join.
		stepName := "join hr and finance"
		joined, ctl := components.NewRecordJoin(&components.RecordJoinConfig{
			Log:            log,
			Name:           stepName,
			LeftChan:       hr,
			RightChan:      finance,
			JoinKeys:       helper.StringSliceToOrderedMap(keys),
			StepWatcher:    g.StepWatcher(stepName),
			WaitCounter:    g.Waiter(stepName),
			PanicHandlerFn: g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		if cfg.SourceFilter != "" {
			stepName = "filter source rows"
			joined, ctl = components.NewFilterRows(&components.FilterRowsConfig{
				Log:            log,
				Name:           stepName,
				InputChan:      joined,
				FilterType:     components.FilterRowsJsonLogic,
				FilterMetadata: components.FilterMetadata(cfg.SourceFilter),
				StepWatcher:    g.StepWatcher(stepName),
				WaitCounter:    g.Waiter(stepName),
				PanicHandlerFn: g.PanicHandler(),
			})
			g.AddStep(stepName, ctl)
		}
		// Current dimension rows.
		stepName = "read current dimension"
		dim, ctl := components.NewSqlQueryWithReplace(&components.SqlQueryWithReplace{
			Log:                 log,
			Name:                stepName,
			Ctx:                 g.Context(),
			Db:                  deps.WarehouseConnector,
			Sqltext:             SelectDimCurrent,
			Replacements:        getDimCurrentReplacements(cfg.TargetSchema, cfg.TargetTable),
			LowerCaseFieldNames: true,
			StepWatcher:         g.StepWatcher(stepName),
			WaitCounter:         g.Waiter(stepName),
			PanicHandlerFn:      g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		// Compare.
		stepName = "merge diff"
		diff, ctl := components.NewMergeDiff(&components.MergeDiffConfig{
			Log:            log,
			Name:           stepName,
			ChanOld:        dim,
			ChanNew:        joined,
			JoinKeys:       helper.StringSliceToOrderedMap(keys),
			CompareKeys:    helper.StringSliceToOrderedMap(DimAttrColumns),
			StepWatcher:    g.StepWatcher(stepName),
			WaitCounter:    g.Waiter(stepName),
			PanicHandlerFn: g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		recs, err := g.Collect(diff)
		if err != nil {
			return err
		}
		ids, rows := classifyDiff(log, recs)
		ti.XComPush(c.XComKeyIdsToUpdate, ids)
		if len(rows) > 0 {
			ti.XComPush(c.XComKeyRowsToInsert, rows)
		}
		return nil
	}
}

// classifyDiff converts merge-diff output into the changed IDs and the rows to insert.
// New rows are inserted. Changed rows are closed by ID and inserted as a new version.
// Deleted rows are counted only.
func classifyDiff(log logger.Logger, recs []stream.Record) (ids string, rows []map[string]string) {
	var changed []string
	deleted := 0
	for _, rec := range recs {
		switch rec.GetDataAsStringPreserveTimeZone(log, c.DiffStatusFieldName) {
		case c.MergeDiffValueNew:
			rows = append(rows, rec.GetStringMap(log, DimInsertColumns))
		case c.MergeDiffValueChanged:
			changed = append(changed, rec.GetDataAsStringPreserveTimeZone(log, DimKeyColumn))
			rows = append(rows, rec.GetStringMap(log, DimInsertColumns))
		case c.MergeDiffValueDeleted:
			deleted++
		}
	}
	ids = helper.StringSliceToSortedCsv(changed)
	log.Info("rows to insert = ", len(rows), ", ids to update = ", len(changed), ", missing from source = ", deleted)
	return
}

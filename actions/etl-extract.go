package actions

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/components"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/transform"
)

// newExtractTask returns a task that streams the result of sqltext to a CSV file and uploads it to key,
// replacing the previous object.
func newExtractTask(cfg *EtlConfig, deps *EtlDeps, sqltext string, columns []string, key string) transform.TaskFunc {
	return func(ctx context.Context, ti *transform.TaskInstance) error {
		dir, err := ioutil.TempDir("", c.AppName+"-")
		if err != nil {
			return errors.Wrap(err, "unable to create temp directory")
		}
		defer os.RemoveAll(dir)
		g := ti.NewStepGroup(ctx)
		defer g.Close()
		log := ti.Log
		// Query.
		stepName := ti.TaskID + " query"
		rows, ctl := components.NewSqlQueryWithArgs(&components.SqlQueryWithArgsConfig{
			Log:                 log,
			Name:                stepName,
			Ctx:                 g.Context(),
			Db:                  deps.SourceConnector,
			Sqltext:             sqltext,
			Args:                []interface{}{ti.LogicalDate},
			LowerCaseFieldNames: true,
			StepWatcher:         g.StepWatcher(stepName),
			WaitCounter:         g.Waiter(stepName),
			PanicHandlerFn:      g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		// CSV file.
		stepName = ti.TaskID + " csv"
		files, ctl := components.NewCsvFileWriter(&components.CsvFileWriterConfig{
			Log:            log,
			Name:           stepName,
			InputChan:      rows,
			OutputDir:      dir,
			FileName:       key,
			HeaderFields:   columns,
			StepWatcher:    g.StepWatcher(stepName),
			WaitCounter:    g.Waiter(stepName),
			PanicHandlerFn: g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		// Upload.
		stepName = ti.TaskID + " s3"
		uploaded, ctl := components.NewCopyFilesToS3(&components.CopyFilesToS3Config{
			Log:              log,
			Name:             stepName,
			Ctx:              g.Context(),
			InputChan:        files,
			Client:           deps.S3Client,
			BucketName:       cfg.S3Bucket,
			BucketPrefix:     cfg.S3Prefix,
			Region:           cfg.S3Region,
			TargetKey:        key,
			RemoveInputFiles: true,
			StepWatcher:      g.StepWatcher(stepName),
			WaitCounter:      g.Waiter(stepName),
			PanicHandlerFn:   g.PanicHandler(),
		})
		g.AddStep(stepName, ctl)
		recs, err := g.Collect(uploaded)
		if err != nil {
			return err
		}
		if len(recs) != 1 {
			return fmt.Errorf("expected 1 uploaded file, got %v", len(recs))
		}
		rowCount := recs[0].GetData(components.Defaults.ChanField4CSVRowCount)
		ti.XComPush(c.XComKeyS3Key, recs[0].GetDataAsStringPreserveTimeZone(log, components.Defaults.ChanField4S3Key))
		ti.XComPush(c.XComKeyRowCount, rowCount)
		log.Info("extracted ", rowCount, " rows to s3://", cfg.S3Bucket, "/", key)
		return nil
	}
}

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/relloyd/empetl/actions"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/transform"
	"github.com/spf13/cobra"
)

var etlCfg = actions.NewDefaultEtlConfig()
var logicalDateStr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run " + c.DagIdEtl + " once",
	Long: fmt.Sprintf(`Run %v once for a single hourly interval and wait for it to finish.

The logical date is the start of the interval and defaults to the previous hour in UTC.
It is passed to the extract queries which select the latest row per employee created
before the end of that hour.
The process exits non-zero if any task fails.`, c.DagIdEtl),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runEtl()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	addEtlFlags(runCmd)
	switches.addFlag(runCmd, &logicalDateStr, "logical-date", "", false, "")
}

// addEtlFlags adds the flags that populate etlCfg.
func addEtlFlags(cmd *cobra.Command) {
	switches.addFlag(cmd, &etlCfg.SourceConnection, "source-connection", etlCfg.SourceConnection, false, "")
	switches.addFlag(cmd, &etlCfg.WarehouseConnection, "warehouse-connection", etlCfg.WarehouseConnection, false, "")
	switches.addFlag(cmd, &etlCfg.S3Connection, "s3-connection", etlCfg.S3Connection, false, "")
	switches.addFlag(cmd, &etlCfg.S3Bucket, "s3-bucket", etlCfg.S3Bucket, false, "")
	switches.addFlag(cmd, &etlCfg.S3Prefix, "s3-prefix", etlCfg.S3Prefix, false, "")
	switches.addFlag(cmd, &etlCfg.S3Region, "s3-region", etlCfg.S3Region, false, "")
	switches.addFlag(cmd, &etlCfg.FinanceKey, "finance-key", etlCfg.FinanceKey, false, "")
	switches.addFlag(cmd, &etlCfg.HrKey, "hr-key", etlCfg.HrKey, false, "")
	switches.addFlag(cmd, &etlCfg.TargetSchema, "target-schema", etlCfg.TargetSchema, false, "")
	switches.addFlag(cmd, &etlCfg.TargetTable, "target-table", etlCfg.TargetTable, false, "")
	switches.addFlag(cmd, &etlCfg.SourceFilter, "source-filter", etlCfg.SourceFilter, false, "")
	switches.addFlag(cmd, &etlCfg.BatchSize, "exec-batch-size", strconv.Itoa(etlCfg.BatchSize), false, "")
	switches.addFlag(cmd, &etlCfg.MaxActiveTasks, "max-active-tasks", strconv.Itoa(etlCfg.MaxActiveTasks), false, "")
	switches.addFlag(cmd, &etlCfg.StatsDumpFrequencySeconds, "stats", strconv.Itoa(etlCfg.StatsDumpFrequencySeconds), false, "")
}

// parseLogicalDate returns the RFC3339 date in s, or the previous hour if s is empty.
func parseLogicalDate(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return actions.LogicalDateFor(now()), nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid logical date %q, use RFC3339 format: %w", s, err)
	}
	return d.UTC(), nil
}

func runEtl() error {
	log := newLogger()
	ld, err := parseLogicalDate(logicalDateStr, time.Now)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := transform.SetupCleanupOnSignal(log, cancel)
	defer stop()
	return runEtlOnce(ctx, log, getConnectionLoader(), ld)
}

// runEtlOnce opens the connections in etlCfg and executes one DAG run for logicalDate.
func runEtlOnce(ctx context.Context, log logger.Logger, loader actions.ConnectionLoader, logicalDate time.Time) error {
	etlCfg.LogLevel = logLevel
	etlCfg.StackDumpOnPanic = stackDumpOnPanic
	if err := etlCfg.Validate(log); err != nil {
		return err
	}
	deps, err := actions.OpenEtlDeps(log, etlCfg, loader)
	if err != nil {
		return err
	}
	defer deps.Close()
	runFn := actions.NewEtlRunFunc(log, etlCfg, deps, nil, nil)
	r, err := runFn(ctx, logicalDate)
	if r != nil {
		log.Info("run ", r.RunID(), " finished in state ", r.State(), " via path ", r.Path())
	}
	return err
}

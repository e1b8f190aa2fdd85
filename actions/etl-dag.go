package actions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/transform"
)

// NewEtlDag returns the definition of ETL_Dag:
//
//	[extract_finance, extract_hr] >> join_and_detect_new_or_changed_rows >> check_ids_to_update
//	check_ids_to_update >> [snowflake_update_task, check_rows_to_insert]
//	check_rows_to_insert >> [snowflake_insert_task, skip_snowflake_insert_task]
//	snowflake_update_task >> snowflake_insert_task
func NewEtlDag(cfg *EtlConfig, deps *EtlDeps) *transform.DagDefinition {
	return &transform.DagDefinition{
		ID:          c.DagIdEtl,
		Description: "hourly load of employee finance and HR data into the employee dimension",
		Schedule:    c.DagScheduleHourly,
		Catchup:     false,
		Tasks: []*transform.TaskDefinition{
			{
				ID:      c.TaskIdExtractFinance,
				Execute: newExtractTask(cfg, deps, SelectEmpSal, FinanceColumns, cfg.FinanceKey),
				Doc:     "extract finance.emp_sal to S3",
			},
			{
				ID:      c.TaskIdExtractHr,
				Execute: newExtractTask(cfg, deps, SelectEmpDetail, HrColumns, cfg.HrKey),
				Doc:     "extract hr.emp_detail to S3",
			},
			{
				ID:       c.TaskIdJoinAndDetect,
				Upstream: []string{c.TaskIdExtractFinance, c.TaskIdExtractHr},
				Execute:  newDiffTask(cfg, deps),
				Doc:      "join the extracts and compare them with the current dimension rows",
			},
			{
				ID:       c.TaskIdCheckIdsToUpdate,
				Upstream: []string{c.TaskIdJoinAndDetect},
				Branch:   checkIdsToUpdate,
			},
			{
				ID:       c.TaskIdSnowflakeUpdate,
				Upstream: []string{c.TaskIdCheckIdsToUpdate},
				Execute:  newUpdateTask(cfg, deps),
				Doc:      "close the current version of changed dimension rows",
			},
			{
				ID:       c.TaskIdCheckRowsToInsert,
				Upstream: []string{c.TaskIdCheckIdsToUpdate},
				Branch:   checkRowsToInsert,
			},
			{
				ID:          c.TaskIdSnowflakeInsert,
				Upstream:    []string{c.TaskIdCheckRowsToInsert, c.TaskIdSnowflakeUpdate},
				TriggerRule: transform.TriggerRuleNoneFailed,
				Execute:     newInsertTask(cfg, deps),
				Doc:         "insert new and changed dimension rows",
			},
			{
				ID:       c.TaskIdSkipSnowflakeInsert,
				Upstream: []string{c.TaskIdCheckRowsToInsert},
			},
		},
	}
}

// NewEtlRunFunc returns a RunFunc that executes ETL_Dag and saves each run in registry.
func NewEtlRunFunc(log logger.Logger, cfg *EtlConfig, deps *EtlDeps, metrics *stats.Metrics, registry *transform.SafeRunRegistry) RunFunc {
	dag := NewEtlDag(cfg, deps)
	return func(ctx context.Context, logicalDate time.Time) (*transform.DagRun, error) {
		r, err := transform.NewDagRun(log, dag, logicalDate, transform.DagRunOptions{
			MaxActiveTasks:            cfg.MaxActiveTasks,
			Metrics:                   metrics,
			StatsDumpFrequencySeconds: cfg.StatsDumpFrequencySeconds,
		})
		if err != nil {
			return nil, err
		}
		if registry != nil {
			registry.Store(r)
		}
		state, err := r.Run(ctx)
		if err != nil {
			return r, errors.Wrapf(err, "run %v finished in state %v", r.RunID(), state)
		}
		return r, nil
	}
}

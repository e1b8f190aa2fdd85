package actions

import (
	"context"
	"fmt"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/transform"
)

// checkIdsToUpdate follows snowflake_update_task unless ids_to_update is exactly "".
// A missing value is an error.
func checkIdsToUpdate(ctx context.Context, ti *transform.TaskInstance) (string, error) {
	v, err := ti.XCom.PullRequired(c.TaskIdJoinAndDetect, c.XComKeyIdsToUpdate)
	if err != nil {
		return "", err
	}
	ids, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string for %v, got %T", c.XComKeyIdsToUpdate, v)
	}
	next := chooseAfterIdsToUpdate(ids)
	ti.Log.Info(c.XComKeyIdsToUpdate, " = ", fmt.Sprintf("%q", ids))
	return next, nil
}

// chooseAfterIdsToUpdate treats only the empty string as no work. Whitespace counts as work.
func chooseAfterIdsToUpdate(ids string) string {
	if ids == "" {
		return c.TaskIdCheckRowsToInsert
	}
	return c.TaskIdSnowflakeUpdate
}

// checkRowsToInsert follows skip_snowflake_insert_task only when rows_to_insert was never pushed.
// It is an error if the diff task pushed nothing at all.
func checkRowsToInsert(ctx context.Context, ti *transform.TaskInstance) (string, error) {
	v, present, err := ti.XComPull(c.TaskIdJoinAndDetect, c.XComKeyRowsToInsert)
	if err != nil {
		return "", err
	}
	return chooseAfterRowsToInsert(v, present), nil
}

// chooseAfterRowsToInsert tests for absence, not emptiness, unlike chooseAfterIdsToUpdate.
// An empty slice that was pushed still chooses snowflake_insert_task.
// Keep the two checks different: downstream behaviour relies on it.
func chooseAfterRowsToInsert(v interface{}, present bool) string {
	if !present || v == nil {
		return c.TaskIdSkipSnowflakeInsert
	}
	return c.TaskIdSnowflakeInsert
}

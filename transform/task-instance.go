package transform

import (
	"context"
	"time"

	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
)

// TaskInstance is handed to a TaskFunc or BranchFunc for one execution of a task.
type TaskInstance struct {
	RunID       string
	DagID       string
	TaskID      string
	LogicalDate time.Time
	Log         logger.Logger
	XCom        *XComStore
	Stats       stats.StatsManager
	Metrics     *stats.Metrics
}

// XComPush saves a value for downstream tasks under this task's ID.
func (ti *TaskInstance) XComPush(key string, value interface{}) {
	ti.XCom.Push(ti.TaskID, key, value)
}

func (ti *TaskInstance) XComPull(taskID string, key string) (value interface{}, ok bool, err error) {
	return ti.XCom.Pull(taskID, key)
}

// NewStepGroup returns a StepGroup for launching streaming components on behalf of this task.
// Callers should defer Close().
func (ti *TaskInstance) NewStepGroup(ctx context.Context) *StepGroup {
	return NewStepGroup(ctx, ti.Log, ti.Stats)
}

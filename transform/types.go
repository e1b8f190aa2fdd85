package transform

import (
	"context"
	"encoding/json"
	"fmt"
)

type TaskState uint32

const (
	TaskStateNone TaskState = iota
	TaskStateScheduled
	TaskStateRunning
	TaskStateSuccess
	TaskStateFailed
	TaskStateSkipped
	TaskStateUpstreamFailed
)

var taskStateNames = map[TaskState]string{
	TaskStateNone:           "none",
	TaskStateScheduled:      "scheduled",
	TaskStateRunning:        "running",
	TaskStateSuccess:        "success",
	TaskStateFailed:         "failed",
	TaskStateSkipped:        "skipped",
	TaskStateUpstreamFailed: "upstream_failed",
}

func (s TaskState) String() string {
	if name, ok := taskStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TaskState(%d)", uint32(s))
}

func (s TaskState) MarshalJSON() ([]byte, error) {
	name, ok := taskStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unhandled TaskState value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(name)
}

func (s *TaskState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range taskStateNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown TaskState %q", name)
}

// IsTerminal returns true when the task will not change state again in this run.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateSuccess, TaskStateFailed, TaskStateSkipped, TaskStateUpstreamFailed:
		return true
	}
	return false
}

type DagRunState uint32

const (
	DagRunStateQueued DagRunState = iota
	DagRunStateRunning
	DagRunStateSuccess
	DagRunStateFailed
)

var dagRunStateNames = map[DagRunState]string{
	DagRunStateQueued:  "queued",
	DagRunStateRunning: "running",
	DagRunStateSuccess: "success",
	DagRunStateFailed:  "failed",
}

func (s DagRunState) String() string {
	if name, ok := dagRunStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DagRunState(%d)", uint32(s))
}

func (s DagRunState) MarshalJSON() ([]byte, error) {
	name, ok := dagRunStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unhandled DagRunState value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(name)
}

func (s *DagRunState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range dagRunStateNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown DagRunState %q", name)
}

func (s DagRunState) IsFinished() bool {
	return s == DagRunStateSuccess || s == DagRunStateFailed
}

type TriggerRule string

const (
	TriggerRuleAllSuccess TriggerRule = "all_success"
	TriggerRuleNoneFailed TriggerRule = "none_failed"
)

// TaskFunc does the work of a task.
type TaskFunc func(ctx context.Context, ti *TaskInstance) error

// BranchFunc returns the ID of the direct downstream task to follow. All other direct downstream tasks are skipped.
type BranchFunc func(ctx context.Context, ti *TaskInstance) (string, error)

// TaskDefinition is one node of a DAG.
// Set Execute or Branch, or neither for a task that does nothing.
type TaskDefinition struct {
	ID          string      `json:"id"`
	Upstream    []string    `json:"upstream,omitempty"`
	TriggerRule TriggerRule `json:"triggerRule"`
	Execute     TaskFunc    `json:"-"`
	Branch      BranchFunc  `json:"-"`
	Doc         string      `json:"doc,omitempty"`
}

// Kind describes the task for display purposes.
func (t *TaskDefinition) Kind() string {
	switch {
	case t.Branch != nil:
		return "branch"
	case t.Execute != nil:
		return "task"
	}
	return "empty"
}

func (t *TaskDefinition) getTriggerRule() TriggerRule {
	if t.TriggerRule == "" {
		return TriggerRuleAllSuccess
	}
	return t.TriggerRule
}

// DagDefinition is a set of tasks and their dependencies.
type DagDefinition struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	Schedule    string            `json:"schedule"`
	Catchup     bool              `json:"catchup"`
	Tasks       []*TaskDefinition `json:"tasks"`
}

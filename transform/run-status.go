package transform

import (
	"time"

	"github.com/relloyd/empetl/stats"
)

type TaskStatus struct {
	TaskID    string        `json:"taskId"`
	State     TaskState     `json:"state"`
	StartTime *time.Time    `json:"startTime,omitempty"`
	EndTime   *time.Time    `json:"endTime,omitempty"`
	Error     string        `json:"error,omitempty"`
	Stats     []stats.Stats `json:"stats,omitempty"`
}

// RunStatus is the JSON view of a DAG run.
type RunStatus struct {
	RunID       string       `json:"runId"`
	DagID       string       `json:"dagId"`
	LogicalDate time.Time    `json:"logicalDate"`
	State       DagRunState  `json:"state"`
	StartTime   *time.Time   `json:"startTime,omitempty"`
	EndTime     *time.Time   `json:"endTime,omitempty"`
	Error       string       `json:"error,omitempty"`
	Path        []string     `json:"path"`
	Tasks       []TaskStatus `json:"tasks"`
}

func (s *RunStatus) IsFinished() bool {
	return s.State.IsFinished()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package transform

import (
	"fmt"

	"github.com/pkg/errors"
)

// Validate checks that task IDs are unique, upstream tasks exist and there are no cycles.
func (d *DagDefinition) Validate() error {
	if d.ID == "" {
		return errors.New("missing DAG ID")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("DAG %v has no tasks", d.ID)
	}
	ids := make(map[string]*TaskDefinition, len(d.Tasks))
	for idx, t := range d.Tasks {
		if t == nil || t.ID == "" {
			return fmt.Errorf("DAG %v: task %v has no ID", d.ID, idx)
		}
		if _, ok := ids[t.ID]; ok {
			return fmt.Errorf("DAG %v: duplicate task ID %q", d.ID, t.ID)
		}
		if t.Execute != nil && t.Branch != nil {
			return fmt.Errorf("DAG %v: task %q sets both Execute and Branch", d.ID, t.ID)
		}
		switch t.getTriggerRule() {
		case TriggerRuleAllSuccess, TriggerRuleNoneFailed:
		default:
			return fmt.Errorf("DAG %v: task %q has unsupported trigger rule %q", d.ID, t.ID, t.TriggerRule)
		}
		ids[t.ID] = t
	}
	for _, t := range d.Tasks {
		seen := make(map[string]bool)
		for _, u := range t.Upstream {
			if _, ok := ids[u]; !ok {
				return fmt.Errorf("DAG %v: task %q has unknown upstream task %q", d.ID, t.ID, u)
			}
			if seen[u] {
				return fmt.Errorf("DAG %v: task %q lists upstream task %q twice", d.ID, t.ID, u)
			}
			seen[u] = true
		}
	}
	if _, err := d.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns task IDs so that every task follows its upstream tasks.
// Ties keep definition order.
func (d *DagDefinition) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(d.Tasks))
	for _, t := range d.Tasks {
		inDegree[t.ID] = len(t.Upstream)
	}
	var queue, retval []string
	for _, t := range d.Tasks {
		if inDegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		retval = append(retval, id)
		for _, down := range d.Downstream(id) {
			inDegree[down]--
			if inDegree[down] == 0 {
				queue = append(queue, down)
			}
		}
	}
	if len(retval) != len(d.Tasks) {
		return nil, fmt.Errorf("DAG %v contains a cycle", d.ID)
	}
	return retval, nil
}

// Downstream returns the IDs of tasks that list id as an upstream task, in definition order.
func (d *DagDefinition) Downstream(id string) []string {
	var retval []string
	for _, t := range d.Tasks {
		for _, u := range t.Upstream {
			if u == id {
				retval = append(retval, t.ID)
				break
			}
		}
	}
	return retval
}

func (d *DagDefinition) GetTask(id string) (*TaskDefinition, bool) {
	for _, t := range d.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (d *DagDefinition) isDirectDownstream(from, to string) bool {
	for _, id := range d.Downstream(from) {
		if id == to {
			return true
		}
	}
	return false
}

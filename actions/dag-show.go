package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/transform"
)

type DagShowConfig struct {
	Dag    *transform.DagDefinition `errorTxt:"DAG definition" mandatory:"yes"`
	Format string                   `errorTxt:"output format" mandatory:"yes"` // yaml | json
	Out    io.Writer
}

type dagDescription struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	Schedule    string            `json:"schedule"`
	Catchup     bool              `json:"catchup"`
	Tasks       []taskDescription `json:"tasks"`
}

type taskDescription struct {
	ID          string                `json:"id"`
	Kind        string                `json:"kind"`
	Upstream    []string              `json:"upstream,omitempty"`
	Downstream  []string              `json:"downstream,omitempty"`
	TriggerRule transform.TriggerRule `json:"triggerRule"`
	Doc         string                `json:"doc,omitempty"`
}

func describeDag(d *transform.DagDefinition) (dagDescription, error) {
	retval := dagDescription{
		ID:          d.ID,
		Description: d.Description,
		Schedule:    d.Schedule,
		Catchup:     d.Catchup,
	}
	order, err := d.TopologicalOrder()
	if err != nil {
		return retval, err
	}
	for _, id := range order {
		t, _ := d.GetTask(id)
		rule := t.TriggerRule
		if rule == "" {
			rule = transform.TriggerRuleAllSuccess
		}
		retval.Tasks = append(retval.Tasks, taskDescription{
			ID:          t.ID,
			Kind:        t.Kind(),
			Upstream:    t.Upstream,
			Downstream:  d.Downstream(t.ID),
			TriggerRule: rule,
			Doc:         t.Doc,
		})
	}
	return retval, nil
}

// RunDagShow prints the DAG structure in YAML or JSON.
func RunDagShow(cfg *DagShowConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	desc, err := describeDag(cfg.Dag)
	if err != nil {
		return err
	}
	var data []byte
	switch cfg.Format {
	case "yaml":
		data, err = yaml.Marshal(desc)
	case "json":
		data, err = json.MarshalIndent(desc, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", cfg.Format)
	}
	if err != nil {
		return fmt.Errorf("unable to marshal the DAG: %w", err)
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	_, err = out.Write(data)
	return err
}

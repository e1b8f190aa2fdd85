package transform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/rs/xid"
	"golang.org/x/sync/semaphore"
)

type DagRunOptions struct {
	MaxActiveTasks            int            // defaults to c.DefaultMaxActiveTasks
	Metrics                   *stats.Metrics // optional
	StatsDumpFrequencySeconds int            // 0 logs step stats at the end of each task only
}

// DagRun is one execution of a DagDefinition for a logical date.
type DagRun struct {
	log         logger.Logger
	dag         *DagDefinition
	runID       string
	logicalDate time.Time
	opts        DagRunOptions
	xcom        *XComStore
	sem         *semaphore.Weighted
	order       []string
	mu          sync.RWMutex
	state       DagRunState
	tasks       map[string]*taskRecord
	path        []string
	startTime   time.Time
	endTime     time.Time
	err         error
}

type taskRecord struct {
	state     TaskState
	startTime time.Time
	endTime   time.Time
	err       error
	stats     stats.StatsFetcher
}

type taskResult struct {
	taskID string
	state  TaskState
	chosen string // branch tasks only
	err    error
}

// NewDagRun validates dag and returns a queued run with a new run ID and an empty XCom store.
func NewDagRun(log logger.Logger, dag *DagDefinition, logicalDate time.Time, opts DagRunOptions) (*DagRun, error) {
	if err := dag.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid DAG")
	}
	order, _ := dag.TopologicalOrder()
	if opts.MaxActiveTasks <= 0 {
		opts.MaxActiveTasks = c.DefaultMaxActiveTasks
	}
	r := &DagRun{
		dag:         dag,
		runID:       xid.New().String(),
		logicalDate: logicalDate,
		opts:        opts,
		xcom:        NewXComStore(),
		sem:         semaphore.NewWeighted(int64(opts.MaxActiveTasks)),
		order:       order,
		state:       DagRunStateQueued,
		tasks:       make(map[string]*taskRecord, len(dag.Tasks)),
	}
	r.log = logger.WithFields(log, map[string]interface{}{
		"dag":         dag.ID,
		"runId":       r.runID,
		"logicalDate": logicalDate.Format(time.RFC3339),
	})
	for _, t := range dag.Tasks {
		r.tasks[t.ID] = &taskRecord{state: TaskStateNone}
	}
	return r, nil
}

func (r *DagRun) RunID() string {
	return r.runID
}

func (r *DagRun) DagID() string {
	return r.dag.ID
}

func (r *DagRun) LogicalDate() time.Time {
	return r.logicalDate
}

func (r *DagRun) XCom() *XComStore {
	return r.xcom
}

// Run executes the tasks of the DAG, each as soon as its upstream tasks are finished, and blocks until
// every task has reached a terminal state.
// It returns the final run state and the first task error.
func (r *DagRun) Run(ctx context.Context) (DagRunState, error) {
	r.mu.Lock()
	if r.state != DagRunStateQueued {
		r.mu.Unlock()
		return r.state, fmt.Errorf("run %v has already been started", r.runID)
	}
	r.state = DagRunStateRunning
	r.startTime = time.Now()
	r.mu.Unlock()
	r.log.Info("DAG run starting")

	results := make(chan taskResult, len(r.dag.Tasks))
	active := 0
	for {
		for _, t := range r.evaluate(ctx.Err() != nil) {
			active++
			go r.runTask(ctx, t, results)
		}
		if active == 0 {
			break
		}
		res := <-results
		active--
		r.complete(res)
	}
	return r.finish()
}

// evaluate applies trigger rules to tasks whose upstream tasks are all terminal and returns those that should run.
// Tasks are visited in topological order so states decided in this pass are seen by their downstream tasks.
func (r *DagRun) evaluate(cancelled bool) []*TaskDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	var retval []*TaskDefinition
	for _, id := range r.order {
		rec := r.tasks[id]
		if rec.state != TaskStateNone {
			continue
		}
		t, _ := r.dag.GetTask(id)
		if cancelled {
			r.setStateLocked(id, TaskStateUpstreamFailed, errors.New("DAG run cancelled before task started"))
			continue
		}
		newState, ready := r.applyTriggerRule(t)
		if !ready {
			continue
		}
		switch newState {
		case TaskStateScheduled:
			rec.state = TaskStateScheduled
			retval = append(retval, t)
		default:
			r.setStateLocked(id, newState, nil)
		}
	}
	return retval
}

// applyTriggerRule returns false while any upstream task is unfinished.
func (r *DagRun) applyTriggerRule(t *TaskDefinition) (TaskState, bool) {
	var success, skipped, failed int
	for _, u := range t.Upstream {
		switch r.tasks[u].state {
		case TaskStateSuccess:
			success++
		case TaskStateSkipped:
			skipped++
		case TaskStateFailed, TaskStateUpstreamFailed:
			failed++
		default:
			return TaskStateNone, false
		}
	}
	switch t.getTriggerRule() {
	case TriggerRuleNoneFailed:
		if failed > 0 {
			return TaskStateUpstreamFailed, true
		}
		return TaskStateScheduled, true
	default: // all_success
		if failed > 0 {
			return TaskStateUpstreamFailed, true
		}
		if skipped > 0 {
			return TaskStateSkipped, true
		}
		return TaskStateScheduled, true
	}
}

func (r *DagRun) runTask(ctx context.Context, t *TaskDefinition, results chan<- taskResult) {
	res := taskResult{taskID: t.ID}
	defer func() { results <- res }()
	if err := r.sem.Acquire(ctx, 1); err != nil {
		res.state = TaskStateUpstreamFailed
		res.err = errors.Wrap(err, "task not started")
		return
	}
	defer r.sem.Release(1)
	log := logger.WithFields(r.log, map[string]interface{}{"task": t.ID})
	sm := stats.NewTransformStats(log, stats.SetStatsDumpFrequency(r.opts.StatsDumpFrequencySeconds))
	r.mu.Lock()
	rec := r.tasks[t.ID]
	rec.state = TaskStateRunning
	rec.startTime = time.Now()
	rec.stats = sm
	r.mu.Unlock()
	ti := &TaskInstance{
		RunID:       r.runID,
		DagID:       r.dag.ID,
		TaskID:      t.ID,
		LogicalDate: r.logicalDate,
		Log:         log,
		XCom:        r.xcom,
		Stats:       sm,
		Metrics:     r.opts.Metrics,
	}
	log.Info("task starting")
	sm.StartDumping()
	res.state, res.chosen, res.err = r.execute(ctx, t, ti)
	sm.StopDumping()
}

// execute runs the task body and turns a panic into a failed state.
func (r *DagRun) execute(ctx context.Context, t *TaskDefinition, ti *TaskInstance) (state TaskState, chosen string, err error) {
	defer func() {
		if p := recover(); p != nil {
			state = TaskStateFailed
			chosen = ""
			err = fmt.Errorf("task %v panicked: %v", t.ID, panicMessage(p))
		}
	}()
	switch {
	case t.Branch != nil:
		chosen, err = t.Branch(ctx, ti)
		if err == nil && !r.dag.isDirectDownstream(t.ID, chosen) {
			err = fmt.Errorf("branch task %v chose %q which is not a direct downstream task", t.ID, chosen)
		}
	case t.Execute != nil:
		err = t.Execute(ctx, ti)
	}
	if err != nil {
		return TaskStateFailed, "", err
	}
	return TaskStateSuccess, chosen, nil
}

func (r *DagRun) complete(res taskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setStateLocked(res.taskID, res.state, res.err)
	if res.state != TaskStateSuccess || res.chosen == "" {
		return
	}
	r.log.Info("branch task ", res.taskID, " chose ", res.chosen)
	for _, down := range r.dag.Downstream(res.taskID) {
		if down != res.chosen && r.tasks[down].state == TaskStateNone {
			r.setStateLocked(down, TaskStateSkipped, nil)
		}
	}
}

// setStateLocked records a terminal task state. The caller holds r.mu.
func (r *DagRun) setStateLocked(taskID string, state TaskState, err error) {
	rec := r.tasks[taskID]
	rec.state = state
	rec.endTime = time.Now()
	rec.err = err
	var d time.Duration
	if !rec.startTime.IsZero() {
		d = rec.endTime.Sub(rec.startTime)
	}
	switch state {
	case TaskStateSuccess:
		r.path = append(r.path, taskID)
		r.log.Info("task ", taskID, " complete")
	case TaskStateFailed:
		r.log.Error("task ", taskID, " failed: ", err)
	case TaskStateUpstreamFailed:
		r.log.Warn("task ", taskID, " upstream failed")
	case TaskStateSkipped:
		r.log.Info("task ", taskID, " skipped")
	}
	if err != nil && r.err == nil && state == TaskStateFailed {
		r.err = errors.Wrapf(err, "task %v", taskID)
	}
	r.opts.Metrics.ObserveTask(r.dag.ID, taskID, state.String(), d)
}

func (r *DagRun) finish() (DagRunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = DagRunStateSuccess
	for _, rec := range r.tasks {
		if rec.state == TaskStateFailed || rec.state == TaskStateUpstreamFailed {
			r.state = DagRunStateFailed
			break
		}
	}
	if r.state == DagRunStateFailed && r.err == nil {
		r.err = errors.New("DAG run cancelled")
	}
	r.endTime = time.Now()
	r.opts.Metrics.ObserveDagRun(r.dag.ID, r.state.String(), r.state == DagRunStateSuccess, r.endTime)
	if r.state == DagRunStateSuccess {
		r.log.Info("DAG run complete, path: ", r.path)
	} else {
		r.log.Error("DAG run failed: ", r.err)
	}
	return r.state, r.err
}

// Path returns the IDs of tasks that succeeded, in the order they completed.
func (r *DagRun) Path() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.path...)
}

func (r *DagRun) TaskStates() map[string]TaskState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	retval := make(map[string]TaskState, len(r.tasks))
	for id, rec := range r.tasks {
		retval[id] = rec.state
	}
	return retval
}

func (r *DagRun) State() DagRunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Status returns a snapshot of the run for JSON output. Tasks are listed in topological order.
func (r *DagRun) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := RunStatus{
		RunID:       r.runID,
		DagID:       r.dag.ID,
		LogicalDate: r.logicalDate,
		State:       r.state,
		StartTime:   timePtr(r.startTime),
		EndTime:     timePtr(r.endTime),
		Error:       errString(r.err),
		Path:        append([]string{}, r.path...),
		Tasks:       make([]TaskStatus, 0, len(r.order)),
	}
	for _, id := range r.order {
		rec := r.tasks[id]
		ts := TaskStatus{
			TaskID:    id,
			State:     rec.state,
			StartTime: timePtr(rec.startTime),
			EndTime:   timePtr(rec.endTime),
			Error:     errString(rec.err),
		}
		if rec.stats != nil {
			ts.Stats = rec.stats.GetStats()
		}
		s.Tasks = append(s.Tasks, ts)
	}
	return s
}

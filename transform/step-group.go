package transform

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/components"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
	"github.com/sirupsen/logrus"
)

// StepGroup tracks the streaming components launched by one task.
// The first component to panic fails the group: every registered component is asked to shut down
// and the group context is cancelled.
type StepGroup struct {
	log      logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	gw       *groupWaiter
	stats    stats.StatsManager
	mu       sync.Mutex
	err      error
	failed   chan struct{}
	failOnce sync.Once
	controls map[string]chan components.ControlAction
}

func NewStepGroup(ctx context.Context, log logger.Logger, sm stats.StatsManager) *StepGroup {
	g := &StepGroup{
		log:      log,
		gw:       newGroupWaiter(),
		stats:    sm,
		failed:   make(chan struct{}),
		controls: make(map[string]chan components.ControlAction),
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	return g
}

// Context is cancelled when the group fails or the parent context is done.
func (g *StepGroup) Context() context.Context {
	return g.ctx
}

// PanicHandler returns a func to be deferred by components.
// It recovers a panic raised via logger.Panic and fails the group with its message.
func (g *StepGroup) PanicHandler() components.PanicHandlerFunc {
	return func() {
		if r := recover(); r != nil {
			g.fail(errors.New(panicMessage(r)))
		}
	}
}

// Waiter returns the ComponentWaiter for stepName.
func (g *StepGroup) Waiter(stepName string) components.ComponentWaiter {
	return g.gw.newStepWaiter(stepName)
}

// StepWatcher returns a row counter for stepName, or nil if the group has no stats manager.
func (g *StepGroup) StepWatcher(stepName string) *stats.StepWatcher {
	if g.stats == nil {
		return nil
	}
	return g.stats.AddStepWatcher(stepName)
}

// AddStep saves the control channel of a launched component so it can be shut down on failure.
func (g *StepGroup) AddStep(stepName string, controlChan chan components.ControlAction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controls[stepName] = controlChan
	if g.err != nil {
		sendShutdown(controlChan)
	}
}

// Collect reads ch until it is closed, the group fails or the context is done.
// It then waits for all steps to finish and returns the records read plus the group error.
func (g *StepGroup) Collect(ch chan stream.Record) ([]stream.Record, error) {
	var retval []stream.Record
	if ch != nil {
	loop:
		for {
			select {
			case rec, ok := <-ch:
				if !ok {
					break loop
				}
				retval = append(retval, rec)
			case <-g.failed:
				break loop
			case <-g.ctx.Done():
				g.fail(errors.Wrap(g.ctx.Err(), "task interrupted"))
				break loop
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return retval, nil
}

// Wait blocks until every step has called Done and returns the first failure, if any.
func (g *StepGroup) Wait() error {
	g.gw.wait()
	return g.Err()
}

func (g *StepGroup) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Close releases the group context.
func (g *StepGroup) Close() {
	g.cancel()
}

func (g *StepGroup) fail(err error) {
	g.failOnce.Do(func() {
		g.mu.Lock()
		g.err = err
		for name, ch := range g.controls {
			g.log.Debug("sending shutdown to step ", name)
			sendShutdown(ch)
		}
		g.mu.Unlock()
		close(g.failed)
		g.cancel()
		if running := g.gw.running(); len(running) > 0 {
			g.log.Debug("steps still running after failure: ", running)
		}
	})
}

// sendShutdown must not block since the component may have exited already.
func sendShutdown(ch chan components.ControlAction) {
	if ch == nil {
		return
	}
	select {
	case ch <- components.ControlAction{Action: components.Shutdown}:
	default:
	}
}

// panicMessage extracts the message from a value recovered after logger.Panic.
func panicMessage(r interface{}) string {
	switch x := r.(type) {
	case *logrus.Entry:
		return x.Message
	case string:
		return x
	case error:
		return x.Error()
	default:
		return fmt.Sprintf("%v", x)
	}
}

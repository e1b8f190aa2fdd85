package transform

import (
	"sync"
)

type StepStatus uint32

const (
	StepStatusStarting StepStatus = iota + 1
	StepStatusRunning
	StepStatusDone
)

// groupWaiter is a wrapper around sync.WaitGroup that records the status of each named step.
// It can return a *stepWaiter which provides access to the groupWaiter for a given step.
type groupWaiter struct {
	wg       sync.WaitGroup
	statuses map[string]StepStatus
	mu       sync.RWMutex
}

func newGroupWaiter() *groupWaiter {
	return &groupWaiter{statuses: make(map[string]StepStatus)}
}

// newStepWaiter returns a *stepWaiter which implements components.ComponentWaiter for the given step.
func (gw *groupWaiter) newStepWaiter(stepName string) *stepWaiter {
	gw.storeStatus(stepName, StepStatusStarting)
	return &stepWaiter{stepName: stepName, gw: gw}
}

func (gw *groupWaiter) storeStatus(stepName string, status StepStatus) {
	gw.mu.Lock()
	gw.statuses[stepName] = status
	gw.mu.Unlock()
}

func (gw *groupWaiter) loadStatus(stepName string) (retval StepStatus, ok bool) {
	gw.mu.RLock()
	retval, ok = gw.statuses[stepName]
	gw.mu.RUnlock()
	return
}

// running returns the names of steps that have started but not finished.
func (gw *groupWaiter) running() []string {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	var retval []string
	for k, v := range gw.statuses {
		if v == StepStatusRunning {
			retval = append(retval, k)
		}
	}
	return retval
}

func (gw *groupWaiter) wait() {
	gw.wg.Wait()
}

// stepWaiter updates the parent waitGroup and the step's status when Add() and Done() are called.
type stepWaiter struct {
	gw       *groupWaiter
	stepName string
}

func (s *stepWaiter) Add() {
	s.gw.wg.Add(1)
	s.gw.storeStatus(s.stepName, StepStatusRunning)
}

func (s *stepWaiter) Done() {
	s.gw.storeStatus(s.stepName, StepStatusDone)
	s.gw.wg.Done()
}

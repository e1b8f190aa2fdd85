package stats

import (
	"sync"
	"time"

	c "github.com/relloyd/empetl/constants"
	h "github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"

	om "github.com/cevaris/ordered_map"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// StatsManager hands out StepWatchers to the streaming steps of one task.
type StatsManager interface {
	StatsFetcher
	StartDumping()
	StopDumping()
	AddStepWatcher(stepName string) *StepWatcher
}

// TransformStatsManager saves the StepWatcher of each streaming step added via AddStepWatcher and
// logs their stats periodically while dumping is switched on.
type TransformStatsManager struct {
	ticker          *time.Ticker
	tickerDone      chan struct{}
	tickerIsRunning h.AtomBool
	tickerFrequency int
	mu              sync.Mutex
	log             logger.Logger
	mapStepStats    *om.OrderedMap // step name => *StepWatcher, in the order steps were added.
}

// SetStatsDumpFrequency returns an option for NewTransformStats.
// Supply 0 seconds to disable the periodic dump; the final stats are still logged by StopDumping.
func SetStatsDumpFrequency(seconds int) func(t *TransformStatsManager) {
	return func(t *TransformStatsManager) {
		t.tickerFrequency = seconds
	}
}

func NewTransformStats(log logger.Logger, options ...func(t *TransformStatsManager)) *TransformStatsManager {
	t := &TransformStatsManager{log: log, tickerFrequency: c.StatsCaptureFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapStepStats = om.NewOrderedMap()
	return t
}

// AddStepWatcher creates a new StepWatcher for stepName and saves it.
// A step name that is added twice replaces the earlier watcher.
func (t *TransformStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(t.log, stepName)
	t.mu.Lock()
	t.mapStepStats.Set(stepName, sw)
	t.mu.Unlock()
	return sw
}

func (t *TransformStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tickerIsRunning.Get() {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	t.tickerIsRunning.Set(true)
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.logStats()
			}
		}
	}()
}

// StopDumping stops the ticker if it was running, recalculates stats for every step and logs them one last time.
func (t *TransformStatsManager) StopDumping() {
	t.mu.Lock()
	wasRunning := t.tickerIsRunning.Get()
	if wasRunning {
		t.tickerIsRunning.Set(false)
		t.ticker.Stop()
	}
	t.mu.Unlock()
	if wasRunning {
		t.tickerDone <- struct{}{} // send unlocked as logStats takes the lock.
	}
	t.mu.Lock()
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		kv.Value.(*StepWatcher).CalculateStats()
	}
	t.mu.Unlock()
	t.logStats()
}

func (t *TransformStatsManager) logStats() {
	for _, s := range t.GetStats() {
		t.log.Info(s.String())
	}
}

// GetStats implements interface StatsFetcher.
func (t *TransformStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	statsList := make([]Stats, 0, t.mapStepStats.Len())
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}

package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/relloyd/empetl/constants"
	h "github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stream"
)

// StepWatcher samples the row count and output channel depth of one streaming step.
// The step calls StartWatching() when it starts producing rows and StopWatching() when done.
type StepWatcher struct {
	log             logger.Logger
	stepName        string
	rowCountPtr     *int64
	chanPtr         *chan stream.Record
	chanLen         int64
	startTime       time.Time
	endTime         time.Time
	rowsPerSecDelta int64
	rowsPerSecAvg   int64
	totalRows       int64
	priorRowCount   int64
	priorTime       time.Time
	mu              sync.Mutex
	ticker          *time.Ticker
	tickerDone      chan struct{}
	isRunning       h.AtomBool
}

type Stats struct {
	StepName           string `json:"stepName"`
	StatusText         string `json:"statusText"`
	ElapsedTimeSec     int    `json:"elapsedTimeSec"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	RowsPerSecondAvg   int    `json:"rowsPerSecondAvg"`
	RowsPerSecondDelta int    `json:"rowsPerSecondDelta"`
	OutputBufferLen    int    `json:"outputBufferLen"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, tickerDone: make(chan struct{})}
}

// StartWatching saves pointers to the step's row counter and output channel and
// starts sampling them every StatsCaptureFrequencySeconds.
func (n *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	n.mu.Lock()
	n.rowCountPtr = rowCountPtr
	n.chanPtr = chanPtr
	n.startTime = time.Now()
	n.priorTime = n.startTime
	n.priorRowCount = 0
	atomic.StoreInt64(&n.totalRows, 0)
	n.mu.Unlock()
	n.isRunning.Set(true)
	n.CalculateStats()
	n.ticker = time.NewTicker(time.Second * c.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-n.ticker.C:
				n.CalculateStats()
			case <-n.tickerDone:
				return
			}
		}
	}()
}

func (n *StepWatcher) StopWatching() {
	if !n.isRunning.Get() {
		return
	}
	n.ticker.Stop()
	n.tickerDone <- struct{}{}
	n.CalculateStats()
	n.mu.Lock()
	n.endTime = time.Now()
	n.mu.Unlock()
	n.isRunning.Set(false)
	atomic.StoreInt64(&n.chanLen, 0)
}

func (n *StepWatcher) CalculateStats() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rowCountPtr == nil {
		return
	}
	deltaTime := int64(time.Since(n.priorTime).Seconds())
	if deltaTime < 1 {
		deltaTime = 1
	}
	rowCount := atomic.LoadInt64(n.rowCountPtr)
	deltaRowCount := rowCount - n.priorRowCount
	atomic.StoreInt64(&n.rowsPerSecDelta, deltaRowCount/deltaTime)
	if n.chanPtr != nil {
		atomic.StoreInt64(&n.chanLen, int64(len(*n.chanPtr)))
	}
	n.log.Debug("STATS: ", n.stepName, " processing ", deltaRowCount/deltaTime, " rows per sec. Output channel length ", atomic.LoadInt64(&n.chanLen))
	n.priorRowCount = rowCount
	n.priorTime = time.Now()
	total := atomic.AddInt64(&n.totalRows, deltaRowCount)
	atomic.StoreInt64(&n.rowsPerSecAvg, total/getNumSecondsSinceTimeOrOne(n.startTime))
}

// GetTotalRows returns the number of rows counted at the last calculation.
func (n *StepWatcher) GetTotalRows() int64 {
	return atomic.LoadInt64(&n.totalRows)
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StepWatcher) RenderStats() Stats {
	statusText := "complete"
	if n.isRunning.Get() {
		statusText = "running"
	}
	n.mu.Lock()
	end := n.endTime
	if end.IsZero() || end.Before(n.startTime) {
		end = time.Now()
	}
	elapsed := int(end.Sub(n.startTime).Seconds())
	if n.startTime.IsZero() {
		statusText = "waiting"
		elapsed = 0
	}
	n.mu.Unlock()
	return Stats{
		StepName:           n.stepName,
		StatusText:         statusText,
		ElapsedTimeSec:     elapsed,
		TotalRowsProcessed: int(atomic.LoadInt64(&n.totalRows)),
		RowsPerSecondAvg:   int(atomic.LoadInt64(&n.rowsPerSecAvg)),
		RowsPerSecondDelta: int(atomic.LoadInt64(&n.rowsPerSecDelta)),
		OutputBufferLen:    int(atomic.LoadInt64(&n.chanLen)),
	}
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"rowsPerSecondAvg=%v "+
			"rowsPerSecondDelta=%v "+
			"outputBufferLen=%v",
		s.StepName, s.StatusText,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.RowsPerSecondAvg,
		s.RowsPerSecondDelta,
		s.OutputBufferLen,
	)
}

func getNumSecondsSinceTimeOrOne(t time.Time) (seconds int64) {
	seconds = int64(time.Since(t).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return
}

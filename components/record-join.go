package components

import (
	"sync/atomic"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	s "github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"

	om "github.com/cevaris/ordered_map"
)

type RecordJoinConfig struct {
	Log            logger.Logger
	Name           string
	LeftChan       chan stream.Record
	RightChan      chan stream.Record
	JoinKeys       *om.OrderedMap // key = field name in LeftChan; value = field name in RightChan.
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewRecordJoin performs an inner join of LeftChan and RightChan using JoinKeys.
// Both input channels MUST be sorted by their join keys, compared as strings.
// Keys on RightChan must be unique and a duplicate causes a panic; many left records may join to the same right record.
// Output records contain all fields from both sides where fields found on the left take precedence.
func NewRecordJoin(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*RecordJoinConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.LeftChan == nil || cfg.RightChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.JoinKeys == nil || cfg.JoinKeys.Len() == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing join keys.")
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	if cfg.WaitCounter != nil {
		cfg.WaitCounter.Add()
	}
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			defer cfg.WaitCounter.Done()
		}
		cfg.Log.Info(cfg.Name, " is running")
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var (
			recLeft, recRight stream.Record
			okLeft, okRight   bool
			unmatched         int64
		)
		getNextRecord := func(rec *stream.Record, ok *bool, ch chan stream.Record) bool {
			select {
			case *rec, *ok = <-ch:
			case controlAction := <-controlChan:
				sendNilControlResponse(controlAction)
				cfg.Log.Info(cfg.Name, " shutdown")
				return false
			}
			return true
		}
		rightKeys := selfJoinKeys(cfg.JoinKeys, false)
		var prevRight stream.Record
		getNextRight := func() bool {
			prevRight = recRight
			if !getNextRecord(&recRight, &okRight, cfg.RightChan) {
				return false
			}
			if okRight && !prevRight.RecordIsNil() && prevRight.DataCanJoinByKeyFields(cfg.Log, recRight, rightKeys) == 0 {
				cfg.Log.Panic(cfg.Name, " error - duplicate join key on right input: ", recRight.GetDataMap())
			}
			return true
		}
		if !getNextRecord(&recLeft, &okLeft, cfg.LeftChan) || !getNextRight() {
			return
		}
		for okLeft && okRight {
			switch recLeft.DataCanJoinByKeyFields(cfg.Log, recRight, cfg.JoinKeys) {
			case 0: // join
				out := stream.NewRecord()
				recRight.CopyTo(out)
				recLeft.CopyTo(out)
				if recSentOK := safeSend(out, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				atomic.AddInt64(&rowCount, 1)
				if !getNextRecord(&recLeft, &okLeft, cfg.LeftChan) {
					return
				}
			case -1: // left has no partner
				unmatched++
				cfg.Log.Debug(cfg.Name, " no right record found for left ", recLeft.GetDataMap())
				if !getNextRecord(&recLeft, &okLeft, cfg.LeftChan) {
					return
				}
			default: // right has no partner
				unmatched++
				cfg.Log.Debug(cfg.Name, " no left record found for right ", recRight.GetDataMap())
				if !getNextRight() {
					return
				}
			}
		}
		// Drain whichever side is left over so upstream steps can complete.
		for okLeft {
			if !getNextRecord(&recLeft, &okLeft, cfg.LeftChan) {
				return
			}
			if okLeft {
				unmatched++
			}
		}
		for okRight {
			if !getNextRight() {
				return
			}
			if okRight {
				unmatched++
			}
		}
		if unmatched > 0 {
			cfg.Log.Info(cfg.Name, " ignored ", unmatched, " unmatched rows")
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete, rows = ", atomic.LoadInt64(&rowCount))
	}()
	return
}

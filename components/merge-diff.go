package components

import (
	"sync/atomic"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	s "github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"

	om "github.com/cevaris/ordered_map"
)

type MergeDiffConfig struct {
	Log                 logger.Logger
	Name                string
	ChanOld             chan stream.Record
	ChanNew             chan stream.Record
	JoinKeys            *om.OrderedMap
	CompareKeys         *om.OrderedMap
	ResultFlagKeyName   string
	OutputIdenticalRows bool
	StepWatcher         *s.StepWatcher
	WaitCounter         ComponentWaiter
	PanicHandlerFn      PanicHandlerFunc
}

// NewMergeDiff produces an output channel of records based on the data found in ChanOld and ChanNew.
// A field is added to each output record (named by ResultFlagKeyName) to show the merge-diff result:
//
//   N == new record found on ChanNew that is not on ChanOld (output is the ChanNew record)
//   C == changes found to the record on ChanOld compared to ChanNew (output is the ChanNew record)
//   D == record not found on ChanNew (output is the ChanOld record)
//   I == records are identical for the CompareKeys columns (output is the ChanNew record, only if OutputIdenticalRows)
//
// JoinKeys map field names in ChanOld to field names in ChanNew and CompareKeys do the same for the data
// columns compared once the join keys match. Values are compared as strings.
//
// NOTE that input channel records MUST be pre-sorted by the join keys; an input that goes backwards causes a panic.
// NOTE that the output channel is closed by this function when it is done.
func NewMergeDiff(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*MergeDiffConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.ChanOld == nil || cfg.ChanNew == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.JoinKeys == nil || cfg.JoinKeys.Len() == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing join keys.")
	}
	if cfg.CompareKeys == nil {
		cfg.CompareKeys = om.NewOrderedMap()
	}
	resultKeyName := c.DiffStatusFieldName
	if cfg.ResultFlagKeyName != "" {
		resultKeyName = cfg.ResultFlagKeyName
	}
	outputChan := make(chan stream.Record, c.ChanSize)
	controlChan := make(chan ControlAction, 1)
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
		log := cfg.Log
		log.Info(cfg.Name, " is running")
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var (
			recOld, recNew   stream.Record
			prevOld, prevNew stream.Record
			okOld, okNew     bool
			counts           = make(map[string]int)
		)
		// getNextRecord fetches the next (old or new) record and checks it sorts after the previous one.
		getNextRecord := func(rec *stream.Record, prev *stream.Record, ok *bool, ch chan stream.Record, keys *om.OrderedMap) bool {
			if *ok {
				*prev = *rec
			}
			select {
			case *rec, *ok = <-ch:
			case controlAction := <-controlChan:
				sendNilControlResponse(controlAction)
				log.Info(cfg.Name, " shutdown")
				return false
			}
			if *ok && !prev.RecordIsNil() && prev.DataCanJoinByKeyFields(log, *rec, keys) > 0 {
				log.Panic(cfg.Name, " input is not sorted by join keys: ", prev.GetDataMap(), " came before ", rec.GetDataMap())
			}
			return true
		}
		oldKeys := selfJoinKeys(cfg.JoinKeys, true)
		newKeys := selfJoinKeys(cfg.JoinKeys, false)
		nextOld := func() bool { return getNextRecord(&recOld, &prevOld, &okOld, cfg.ChanOld, oldKeys) }
		nextNew := func() bool { return getNextRecord(&recNew, &prevNew, &okNew, cfg.ChanNew, newKeys) }
		send := func(rec stream.Record, flag string) bool {
			counts[flag]++
			rec.SetData(resultKeyName, flag)
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				log.Info(cfg.Name, " shutdown")
				return false
			}
			return true
		}
		if !nextOld() || !nextNew() {
			return
		}
		for okOld || okNew { // while either new/old channel still has records...
			atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			comparison := 1                // old is exhausted so treat new as NEW.
			if okOld && okNew {
				comparison = recOld.DataCanJoinByKeyFields(log, recNew, cfg.JoinKeys)
			} else if okOld {
				comparison = -1 // new is exhausted so treat old as DELETED.
			}
			switch comparison {
			case 0:
				if recOld.DataIsDeepEqual(log, recNew, cfg.CompareKeys) {
					if cfg.OutputIdenticalRows && !send(recNew, c.MergeDiffValueIdentical) {
						return
					}
					if !cfg.OutputIdenticalRows {
						counts[c.MergeDiffValueIdentical]++
					}
				} else if !send(recNew, c.MergeDiffValueChanged) {
					return
				}
				if !nextOld() || !nextNew() {
					return
				}
			case -1:
				if !send(recOld, c.MergeDiffValueDeleted) || !nextOld() {
					return
				}
			default:
				if !send(recNew, c.MergeDiffValueNew) || !nextNew() {
					return
				}
			}
		}
		close(outputChan)
		log.Info(cfg.Name, " complete, new=", counts[c.MergeDiffValueNew],
			" changed=", counts[c.MergeDiffValueChanged],
			" deleted=", counts[c.MergeDiffValueDeleted],
			" identical=", counts[c.MergeDiffValueIdentical])
	}()
	return outputChan, controlChan
}

// selfJoinKeys returns an ordered map that compares records on one side of joinKeys with each other.
func selfJoinKeys(joinKeys *om.OrderedMap, useKeys bool) *om.OrderedMap {
	retval := om.NewOrderedMap()
	iter := joinKeys.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		if useKeys {
			retval.Set(kv.Key, kv.Key)
		} else {
			retval.Set(kv.Value, kv.Value)
		}
	}
	return retval
}

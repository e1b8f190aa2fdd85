package components

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/diegoholiveira/jsonlogic"
	"github.com/pkg/errors"
	c "github.com/relloyd/empetl/constants"
	log "github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
)

type FilterType string
type FilterMetadata string

type mapFilterFuncs map[FilterType]filterSetupFunc
type filterSetupFunc func(log log.Logger, metadata FilterMetadata) (filterFunc, error)
type filterFunc func(data stream.Record) (stream.Record, error)

const (
	FilterRowsJsonLogic FilterType = "JsonLogic"
)

var filterTypes = mapFilterFuncs{
	FilterRowsJsonLogic: setupJsonLogicFilter, // FilterMetadata is the JSON Logic rule.
}

type FilterRowsConfig struct {
	Log            log.Logger
	Name           string
	InputChan      chan stream.Record
	FilterType     FilterType     // one of the keys in the filterTypes map.
	FilterMetadata FilterMetadata // filter specific settings.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// ValidateFilter returns an error if the filter type is unknown or its metadata can't be used.
func ValidateFilter(l log.Logger, t FilterType, metadata FilterMetadata) error {
	fnGetFilter, ok := filterTypes[t]
	if !ok {
		return errors.Errorf("unknown filter type %q", t)
	}
	_, err := fnGetFilter(l, metadata)
	return err
}

// NewFilterRows accepts a FilterRowsConfig{} and outputs rows if they match the given filter.
func NewFilterRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*FilterRowsConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	fnGetFilter, ok := filterTypes[cfg.FilterType]
	if !ok {
		cfg.Log.Panic(cfg.Name, " unable to find filter function using name ", cfg.FilterType)
	}
	fnFilter, err := fnGetFilter(cfg.Log, cfg.FilterMetadata)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to setup filter ", cfg.FilterType, ": ", err)
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
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Info(cfg.Name, " is running")
		passed := int64(0)
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					data, err := fnFilter(rec)
					if err != nil {
						cfg.Log.Panic(cfg.Name, " aborting due to error: ", err)
					}
					if !data.RecordIsNil() { // if the filter returned a record...
						passed++
						if recSentOK := safeSend(data, outputChan, controlChan, sendNilControlResponse); !recSentOK {
							cfg.Log.Info(cfg.Name, " shutdown")
							return
						}
					}
				}
			case controlAction := <-controlChan: // if we were asked to shutdown...
				sendNilControlResponse(controlAction)
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete, ", passed, " of ", atomic.LoadInt64(&rowCount), " rows passed")
	}()
	return
}

// setupJsonLogicFilter returns a filterFunc, which can be used to filter records using JSON Logic.
// Supply the JSON Logic rule as metadata input parameter.
// The filterFunc returns the data if the rule evaluates to true, else it returns a nil record.
func setupJsonLogicFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	var result bytes.Buffer
	rule := string(metadata)
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, errors.Errorf("invalid %v rule: %v", FilterRowsJsonLogic, metadata)
	}
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			result.Reset()
			if err := applyJsonLogic(data, rule, &result); err != nil {
				return stream.NewNilRecord(), err
			}
			if strings.TrimSpace(result.String()) == "true" {
				return data, nil
			}
		}
		return stream.NewNilRecord(), nil // return nil if data is nil.
	}, nil
}

func applyJsonLogic(data stream.Record, rule string, result *bytes.Buffer) error {
	jsonData, err := json.Marshal(data.GetDataMap())
	if err != nil {
		return errors.Wrap(err, "error marshalling data before applying JSON logic")
	}
	if err = jsonlogic.Apply(strings.NewReader(rule), bytes.NewReader(jsonData), result); err != nil {
		return errors.Wrap(err, "error applying JSON logic")
	}
	return nil
}

package components

import (
	"sync/atomic"

	c "github.com/relloyd/empetl/constants"
	f "github.com/relloyd/empetl/file"
	"github.com/relloyd/empetl/logger"
	s "github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
)

type CsvFileWriterConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record // the input channel of rows to write to an output CSV file.
	OutputDir                string             // set to empty string to use a system generated sub directory in OS temp space.
	FileName                 string
	HeaderFields             []string // the slice of key names to be found in InputChan that will be used as the CSV header.
	OutputChanField4FilePath string   // the field on outputChan that will contain the file name.
	StepWatcher              *s.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewCsvFileWriter will dump cfg.InputChan to a single CSV file headed by cfg.HeaderFields.
// The file is created even when there are no input rows so that downstream steps always have a file to copy.
// outputChan gets one record holding the full path of the file and its row count once the input is exhausted.
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if len(cfg.HeaderFields) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing header fields.")
	}
	if cfg.OutputChanField4FilePath == "" {
		cfg.OutputChanField4FilePath = Defaults.ChanField4CSVFileName
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
		cfg.Log.Debug(cfg.Name, " starting NewCSVFileOutput with config: outputDir=", cfg.OutputDir, "; fileName=", cfg.FileName)
		fi, err := f.NewCSVFileOutput(cfg.Log, cfg.OutputDir, cfg.FileName)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " ", err)
		}
		defer fi.Cleanup()
		fi.SetHeader(cfg.HeaderFields)
		fi.MustCreateFile()
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var controlAction ControlAction
		shutdownRequested := false
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					fi.MustWriteToCSV(rec.GetDataKeysAsSlice(cfg.Log, cfg.HeaderFields))
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
				}
			case controlAction = <-controlChan:
				shutdownRequested = true
			}
			if shutdownRequested || cfg.InputChan == nil { // if we should quit due to a shutdown request or the end or input...
				break
			}
		}
		if shutdownRequested {
			sendNilControlResponse(controlAction)
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		fi.Cleanup() // flush and close before anyone reads the file.
		row := stream.NewRecord()
		row.SetData(cfg.OutputChanField4FilePath, fi.GetFileName())
		row.SetData(Defaults.ChanField4CSVRowCount, atomic.LoadInt64(&rowCount))
		cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", row)
		if rowSentOK := safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete, rows = ", atomic.LoadInt64(&rowCount))
	}()
	return
}

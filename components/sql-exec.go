package components

import (
	"sync/atomic"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
	s "github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
	"golang.org/x/net/context"
)

type SqlExecConfig struct {
	Log            logger.Logger
	Name           string
	Ctx            context.Context
	InputChan      chan stream.Record
	OutputDb       shared.Connector
	Generator      shared.SqlStmtTxtBatcher // builds one statement per batch of input records.
	ValueFields    []string                 // input fields to bind, in the order Generator expects them.
	BatchSize      int                      // rows per statement.
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewSqlExec adds the ValueFields of each input record to a text batch from cfg.Generator and executes the
// batch whenever it is full, all in a single transaction that is committed once the input is exhausted.
// outputChan gets one record holding the total rows affected and the number of statements executed.
// If nothing was received, no transaction is started and the totals are zero.
func NewSqlExec(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SqlExecConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.OutputDb == nil || cfg.Generator == nil {
		cfg.Log.Panic(cfg.Name, " error - missing database connection or SQL generator.")
	}
	if len(cfg.ValueFields) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing value fields.")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = c.SqlExecBatchSizeDefault
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
		if cfg.StepWatcher != nil { // if we have been given a stepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		ctx := contextOrBackground(cfg.Ctx)
		var (
			tx           shared.Transacter
			err          error
			committed    bool
			rowsAffected int64
			stmtCount    int64
		)
		defer func() {
			if tx != nil && !committed {
				cfg.Log.Info(cfg.Name, " rolling back")
				_ = tx.Rollback()
			}
		}()
		values := make([]interface{}, len(cfg.ValueFields))
		execBatch := func() {
			if cfg.Generator.GetRowCount() == 0 {
				return
			}
			n := mustExecSqlTransaction(ctx, cfg.Log, tx, cfg.Generator.GetStatement(), cfg.Generator.GetValues()...)
			rowsAffected += n
			stmtCount++
			cfg.Log.Debug(cfg.Name, " executed batch of ", cfg.Generator.GetRowCount(), " rows, rows affected = ", n)
			cfg.Generator.InitBatch(cfg.BatchSize)
		}
		for {
			select {
			case rec, ok := <-cfg.InputChan: // per input row...
				if !ok { // if we have run out of rows...
					cfg.InputChan = nil // disable this case
				} else {
					if tx == nil {
						tx, err = cfg.OutputDb.Begin()
						if err != nil {
							cfg.Log.Panic(cfg.Name, " unable to start new transaction: ", err)
						}
						cfg.Generator.InitBatch(cfg.BatchSize)
					}
					for idx, f := range cfg.ValueFields {
						values[idx] = rec.GetData(f)
					}
					batchIsFull, err := cfg.Generator.AddValuesToBatch(values)
					if err != nil {
						cfg.Log.Panic(cfg.Name, " ", err)
					}
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					if batchIsFull {
						execBatch()
					}
				}
			case controlAction := <-controlChan: // if we have been asked to shutdown...
				sendNilControlResponse(controlAction)
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if we should exit gracefully...
				break
			}
		}
		if tx != nil {
			execBatch()
			mustCommitSqlTransaction(cfg.Log, tx, nil)
			committed = true
		}
		out := stream.NewRecord()
		out.SetData(Defaults.ChanField4RowsAffected, rowsAffected)
		out.SetData(Defaults.ChanField4StmtCount, stmtCount)
		if recSentOK := safeSend(out, outputChan, controlChan, sendNilControlResponse); !recSentOK {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete, input rows = ", atomic.LoadInt64(&rowCount), "; rows affected = ", rowsAffected, "; statements = ", stmtCount)
	}()
	return outputChan, controlChan
}

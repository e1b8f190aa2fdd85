package components

import (
	"fmt"
	"strings"
	"sync/atomic"

	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
	s "github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
	"golang.org/x/net/context"
)

type SqlQueryWithArgsConfig struct {
	Log                 logger.Logger
	Name                string
	Ctx                 context.Context // optional, cancels the query.
	Db                  shared.Connector
	StepWatcher         *s.StepWatcher // optional ptr to object that can gather step stats.
	WaitCounter         ComponentWaiter
	Sqltext             string
	Args                []interface{}
	LowerCaseFieldNames bool // Snowflake returns unquoted column names in upper case.
	PanicHandlerFn      PanicHandlerFunc
}

type SqlQueryWithReplace struct {
	Log                 logger.Logger
	Name                string
	Ctx                 context.Context
	Db                  shared.Connector
	StepWatcher         *s.StepWatcher // optional ptr to object that can gather step stats.
	WaitCounter         ComponentWaiter
	Sqltext             string
	Args                []interface{}
	Replacements        map[string]string
	LowerCaseFieldNames bool
	PanicHandlerFn      PanicHandlerFunc
}

// NewSqlQueryWithArgs executes SQL and fetches rows onto the output channel.
// Args can be nil if you don't want to use bind variables.
func NewSqlQueryWithArgs(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*SqlQueryWithArgsConfig)
	outputChan := make(chan stream.Record, int(c.ChanSize))
	controlChan := make(chan ControlAction, 1) // make a control channel that receives a chan error.
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
		execSql(contextOrBackground(cfg.Ctx), cfg.Log, cfg.Name, cfg.Db, cfg.StepWatcher, cfg.Sqltext, cfg.Args, cfg.LowerCaseFieldNames, outputChan, controlChan)
	}()
	return outputChan, controlChan
}

// NewSqlQueryWithReplace will execute SQL with args, but replace strings within the supplied SQL first.
func NewSqlQueryWithReplace(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*SqlQueryWithReplace)
	outputChan := make(chan stream.Record, int(c.ChanSize))
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
		newSQL := cfg.Sqltext
		for k, v := range cfg.Replacements { // for each key in map of replacements...
			newSQL = strings.Replace(newSQL, k, v, -1)
		}
		execSql(contextOrBackground(cfg.Ctx), cfg.Log, cfg.Name, cfg.Db, cfg.StepWatcher, newSQL, cfg.Args, cfg.LowerCaseFieldNames, outputChan, controlChan)
	}()
	return outputChan, controlChan
}

// execSql executes SQL using the supplied args returning results onto the output channel.
// The output channel is closed once all rows are sent.
func execSql(ctx context.Context,
	log logger.Logger,
	name string,
	db shared.Connector,
	stepWatcher *s.StepWatcher,
	sqltext string,
	args []interface{},
	lowerCaseFieldNames bool,
	outputChan chan stream.Record,
	controlChan chan ControlAction,
) {
	if sqltext == "" {
		log.Panic(name, " received unexpected empty SQL")
	}
	if db == nil {
		log.Panic(name, " error - missing database connection")
	}
	rowCount := int64(0)
	if stepWatcher != nil { // if the caller supplied a callback function for us to report row count and channel stats...
		stepWatcher.StartWatching(&rowCount, &outputChan)
		defer stepWatcher.StopWatching()
	}
	log.Info(name, " executing SQL: ", sqltext, "; args = ", args)
	rows, err := db.QueryContext(ctx, sqltext, args...)
	if err != nil {
		log.Panic(fmt.Sprintf("%v received error during database query using SQL: '%v' %v", name, sqltext, err))
	}
	cols, err := rows.Columns()
	if err != nil {
		log.Panic(name, " unable to fetch columns: ", err)
	}
	if lowerCaseFieldNames {
		lower := make([]string, len(cols))
		for idx := range cols {
			lower[idx] = strings.ToLower(cols[idx])
		}
		cols = lower
	}
	log.Debug(name, " columns = ", cols)
	scanPtrs := make([]interface{}, len(cols))
	scanVals := make([]interface{}, len(cols))
	for idx := range cols {
		scanPtrs[idx] = &scanVals[idx]
	}
	for rows.Next() {
		if err := rows.Scan(scanPtrs...); err != nil {
			log.Panic(name, " unable to scan row: ", err)
		}
		row := stream.NewRecord()
		for idx := range scanVals {
			row.SetData(cols[idx], scanVals[idx])
		}
		log.Trace(name, " producing row onto outputChan: ", row)
		if rowSentOK := safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
			_ = rows.Close()
			log.Info(name, " shutdown")
			return
		}
		atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
		select {
		case controlAction := <-controlChan: // if we have been asked to shutdown...
			var errResponse error
			if err := rows.Close(); err != nil {
				errResponse = fmt.Errorf("%v error closing SQL result set: %v", name, err) // don't create more panics.
			}
			if controlAction.ResponseChan != nil {
				controlAction.ResponseChan <- errResponse
			}
			log.Info(name, " shutdown")
			return
		default:
		}
	}
	if err := rows.Err(); err != nil {
		log.Panic(name, " error fetching rows: ", err)
	}
	if err := rows.Close(); err != nil {
		log.Panic(fmt.Sprintf("error closing SQL result set in %v: %v", name, err))
	}
	close(outputChan) // end gracefully; tell downstream components that we're done.
	log.Info(name, " complete, rows = ", atomic.LoadInt64(&rowCount))
}

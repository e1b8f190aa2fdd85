package components

import (
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/relloyd/empetl/stream"
	"golang.org/x/net/context"
)

func safeSend(rec stream.Record,
	outputChan chan stream.Record,
	controlChan chan ControlAction,
	controlFunc func(c ControlAction),
) (recordSentOK bool) {
	select {
	case outputChan <- rec: // if we can send the record to the outputChan...
		return true // signal that data was sent OK.
	case c := <-controlChan: // if we were asked to shutdown...
		controlFunc(c) // handle the control action...
		return false   // signal that the caller should shutdown.
	}
}

func sendNilControlResponse(c ControlAction) {
	if c.ResponseChan != nil {
		c.ResponseChan <- nil // respond that we're done with a nil error.
	}
}

// mustExecSqlTransaction executes sqltext in tx and returns the number of rows affected.
func mustExecSqlTransaction(ctx context.Context, log logger.Logger, tx shared.Transacter, sqltext string, values ...interface{}) int64 {
	log.Debug("Exec trying...")
	res, err := tx.ExecContext(ctx, sqltext, values...)
	if err != nil {
		log.Panic("Error during exec of SQL (", sqltext, ") ", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		log.Panic("Error checking number of rows affected after SQL (", sqltext, ") ", err)
	}
	log.Debug("Exec complete, rows affected = ", n)
	return n
}

func mustCommitSqlTransaction(log logger.Logger, tx shared.Transacter, commitCounter *int) {
	err := tx.Commit()
	if err != nil {
		log.Panic("Error committing transaction: ", err)
	}
	if commitCounter != nil {
		*commitCounter++
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// NewRecordChanFromStringMaps returns a closed channel holding one record per map in rows.
func NewRecordChanFromStringMaps(rows []map[string]string) chan stream.Record {
	ch := make(chan stream.Record, len(rows))
	for _, r := range rows {
		ch <- stream.NewRecordFromStringMap(r)
	}
	close(ch)
	return ch
}

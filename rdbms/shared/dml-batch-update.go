package shared

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	h "github.com/relloyd/empetl/helper"
)

// SqlUpdateTxtBatch implements interface SqlStmtTxtBatcher
// and is able to generate UPDATE statements that apply the literal SET clause to a batch of keys:
//   update <SCHEMA><SEPARATOR><TABLE> set <SET-TXT> where <PREDICATE> and <KEY> in (:1,:2,...)
// Only a single key column is supported.
type SqlUpdateTxtBatch struct {
	SqlStatementGeneratorConfig // mandatory to be populated.
	sqlCoreCfg
	KeyCol string
}

// NewUpdateGenerator creates a key-list UPDATE generator.
// Configure defaults in SqlStatementGeneratorConfig.
func (g *DmlGeneratorTxtBatch) NewUpdateGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtTxtBatcher {
	FixSqlStatementGeneratorConfig(cfg)
	cfg.Log.Debug("Creating NewUpdateGenerator")
	o := &SqlUpdateTxtBatch{SqlStatementGeneratorConfig: *cfg}
	o.bindStyle = g.BindStyle
	o.setupSqlStatement()
	return o
}

func (o *SqlUpdateTxtBatch) setupSqlStatement() {
	if o.TargetKeyCols.Len() != 1 {
		o.Log.Panic("UPDATE generator requires exactly one key column, got ", o.TargetKeyCols.Len())
	}
	keyList := make([]string, 1)
	idx := 0
	h.OrderedMapValuesToStringSlice(o.Log, o.TargetKeyCols, &keyList, &idx)
	o.KeyCol = keyList[0]
	cols, exprs := getLiteralCols(o.TargetLiteralCols)
	if len(cols) == 0 {
		o.Log.Panic("UPDATE generator requires at least one literal SET column")
	}
	set := make([]string, len(cols))
	for i := range cols {
		set[i] = fmt.Sprintf("%v = %v", cols[i], exprs[i])
	}
	o.sqlStmtTemplate = `update <SCHEMA><SEPARATOR><TABLE> set <SET-TXT> where <WHERE-TXT>`
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SCHEMA>", o.OutputSchema, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SEPARATOR>", o.SchemaSeparator, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TABLE>", o.OutputTable, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SET-TXT>", strings.Join(set, ", "), 1)
	o.Log.Debug("setup UPDATE generator with SQL (<WHERE-TXT> pending): ", o.sqlStmtTemplate)
}

func (o *SqlUpdateTxtBatch) InitBatch(batchSize int) {
	o.batchSize = batchSize
	o.rowsInBatch = 0
	o.sqlValues = make([]interface{}, 0, o.batchSize)
}

func (o *SqlUpdateTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	if o.rowsInBatch >= o.batchSize {
		err = errors.New("no more rows allowed in UPDATE batch")
		batchIsFull = true
		return
	}
	if len(values) != 1 {
		err = fmt.Errorf("expected one key value per UPDATE row but got %v: values = %v", len(values), values)
		return
	}
	o.sqlValues = append(o.sqlValues, values...) // save all input values to pass as args to SQL exec.
	o.rowsInBatch++
	batchIsFull = o.rowsInBatch >= o.batchSize
	return
}

func (o *SqlUpdateTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

func (o *SqlUpdateTxtBatch) GetRowCount() int {
	return o.rowsInBatch
}

func (o *SqlUpdateTxtBatch) GetStatement() string {
	if o.sqlStmt == "" || o.rowsInCachedStmt != o.rowsInBatch { // if we need to generate SQL...
		binds := make([]string, o.rowsInBatch)
		for i := range binds {
			binds[i] = o.bindVar(i + 1)
		}
		where := joinNonEmpty(" and ", o.UpdatePredicate, fmt.Sprintf("%v in (%v)", o.KeyCol, strings.Join(binds, ",")))
		o.sqlStmt = strings.Replace(o.sqlStmtTemplate, "<WHERE-TXT>", where, 1)
		o.rowsInCachedStmt = o.rowsInBatch
	}
	o.Log.Trace("SQL batch UPDATE generated statement: ", o.sqlStmt)
	return o.sqlStmt
}

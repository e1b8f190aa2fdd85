package shared

import (
	"strings"

	"github.com/pkg/errors"
	h "github.com/relloyd/empetl/helper"
)

// SqlInsertTxtBatch implements interface SqlStmtTxtBatcher
// and is able to generate INSERT statements with batches of rows supplied.
type SqlInsertTxtBatch struct {
	SqlStatementGeneratorConfig // mandatory to be populated.
	sqlCoreCfg
	ColList      []string // list of columns extracted from SqlStatementGeneratorConfig.
	literalExprs []string
}

// NewInsertGenerator creates a new SqlStmtGenerator that implements interface SqlStmtTxtBatcher.
// Configure defaults in SqlStatementGeneratorConfig.
func (g *DmlGeneratorTxtBatch) NewInsertGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtTxtBatcher {
	FixSqlStatementGeneratorConfig(cfg)
	cfg.Log.Debug("Creating NewInsertGenerator")
	o := &SqlInsertTxtBatch{SqlStatementGeneratorConfig: *cfg}
	o.bindStyle = g.BindStyle
	o.setupSqlStatement()
	return o
}

func (o *SqlInsertTxtBatch) setupSqlStatement() {
	// Build the list of column names.
	numCols := o.TargetKeyCols.Len() + orderedMapLen(o.TargetOtherCols)
	o.ColList = make([]string, numCols) // a slice of length that matches num target table cols.
	idx := 0
	h.OrderedMapValuesToStringSlice(o.Log, o.TargetKeyCols, &o.ColList, &idx) // build the list of "key" columns.
	if o.TargetOtherCols != nil {
		h.OrderedMapValuesToStringSlice(o.Log, o.TargetOtherCols, &o.ColList, &idx) // build the list of "other" columns.
	}
	literalCols, literalExprs := getLiteralCols(o.TargetLiteralCols)
	o.literalExprs = literalExprs
	allCols := append(append([]string{}, o.ColList...), literalCols...)
	// Populate the SQL template.
	o.sqlStmtTemplate = `insert into <SCHEMA><SEPARATOR><TABLE> (<TGT-COLS>) values <VALUES>`
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SCHEMA>", o.OutputSchema, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SEPARATOR>", o.SchemaSeparator, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TABLE>", o.OutputTable, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TGT-COLS>", strings.Join(allCols, ","), 1)
	o.Log.Debug("setup INSERT generator with SQL (VALUES pending): ", o.sqlStmtTemplate)
}

func (o *SqlInsertTxtBatch) InitBatch(batchSize int) {
	o.batchSize = batchSize
	o.rowsInBatch = 0
	// Allocate a new buffer to hold all values (args) to exec.
	o.sqlValues = make([]interface{}, 0, o.batchSize*len(o.ColList)) // many values per row in a batch.
}

func (o *SqlInsertTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	if o.rowsInBatch >= o.batchSize {
		err = errors.New("no more rows allowed in INSERT batch")
		batchIsFull = true
		return
	}
	if len(values) != len(o.ColList) {
		err = errors.New("the number of values supplied does not match the number of table columns")
		return
	}
	// Append values to buffer.
	o.sqlValues = append(o.sqlValues, values...)
	o.rowsInBatch++ // keep track of how close we are to the batch limit.
	batchIsFull = o.rowsInBatch >= o.batchSize
	return
}

func (o *SqlInsertTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

func (o *SqlInsertTxtBatch) GetRowCount() int {
	return o.rowsInBatch
}

// GetStatement returns the INSERT for the rows in the current batch.
// The text is cached until the number of rows in the batch changes.
func (o *SqlInsertTxtBatch) GetStatement() string {
	if o.sqlStmt == "" || o.rowsInCachedStmt != o.rowsInBatch { // if we need to generate SQL...
		allRows := strings.Builder{}
		valIdx := 1
		for rowIdx := 1; rowIdx <= o.rowsInBatch; rowIdx++ { // for each row...
			// Build the current row of bind variables followed by any literal expressions.
			row := make([]string, 0, len(o.ColList)+len(o.literalExprs))
			for idy := 0; idy < len(o.ColList); idy++ {
				row = append(row, o.bindVar(valIdx))
				valIdx++
			}
			row = append(row, o.literalExprs...)
			if rowIdx > 1 {
				allRows.WriteString(",")
			}
			// Save the row as '( :1,:2,:n )'.
			allRows.WriteString("( " + strings.Join(row, ",") + " )")
		}
		o.sqlStmt = strings.Replace(o.sqlStmtTemplate, "<VALUES>", allRows.String(), 1)
		o.rowsInCachedStmt = o.rowsInBatch
	}
	o.Log.Trace("SQL batch INSERT generated statement: ", o.sqlStmt)
	return o.sqlStmt
}

package shared

import (
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/empetl/logger"
)

const (
	BindStyleColon  = ":" // Snowflake positional binds :1, :2, ...
	BindStyleDollar = "$" // Postgres positional binds $1, $2, ...
)

// DmlGeneratorTxtBatch generates multi-row DML text using positional bind variables in the style of BindStyle.
type DmlGeneratorTxtBatch struct {
	BindStyle string
}

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	OutputSchema    string
	SchemaSeparator string
	OutputTable     string
	TargetKeyCols   *om.OrderedMap // ordered map of: key = chan field name; value = target table column name
	TargetOtherCols *om.OrderedMap // ordered map of: key = chan field name; value = target table column name
	// TargetLiteralCols holds SQL expressions rather than bind values.
	// INSERT adds them as extra columns; UPDATE uses them in the SET clause.
	TargetLiteralCols *om.OrderedMap // ordered map of: key = target table column name; value = SQL expression
	// UpdatePredicate is an extra filter AND-ed into generated UPDATE statements.
	UpdatePredicate string
}

type sqlCoreCfg struct {
	sqlStmt          string
	sqlStmtTemplate  string
	sqlValues        []interface{} // slice to hold data values for all rows in batch
	batchSize        int
	rowsInBatch      int
	rowsInCachedStmt int
	bindStyle        string
}

func (c *sqlCoreCfg) bindVar(idx int) string {
	if c.bindStyle == "" {
		return fmt.Sprintf("%v%v", BindStyleColon, idx)
	}
	return fmt.Sprintf("%v%v", c.bindStyle, idx)
}

// getLiteralCols returns the column names and SQL expressions held in m, in order.
func getLiteralCols(m *om.OrderedMap) (cols []string, exprs []string) {
	if m == nil {
		return
	}
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		cols = append(cols, kv.Key.(string))
		exprs = append(exprs, kv.Value.(string))
	}
	return
}

func orderedMapLen(m *om.OrderedMap) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

func joinNonEmpty(sep string, s ...string) string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

package actions

import (
	"strings"
)

// Source and dimension columns. Values are compared as text so the queries render numbers and dates
// in the same format on both sides.
var (
	FinanceColumns   = []string{"emp_id", "salary", "bonus"}
	HrColumns        = []string{"emp_id", "first_name", "last_name", "department", "job_title", "hire_date"}
	DimKeyColumn     = "emp_id"
	DimAttrColumns   = []string{"first_name", "last_name", "department", "job_title", "hire_date", "salary", "bonus"}
	DimInsertColumns = append([]string{DimKeyColumn}, DimAttrColumns...)
)

// SelectEmpSal extracts the latest pay row per employee created before the end of the interval starting at $1.
const SelectEmpSal = `select distinct on (emp_id) cast(emp_id as varchar) as emp_id,
  to_char(salary, 'FM9999999990.00') as salary,
  to_char(coalesce(bonus, 0), 'FM9999999990.00') as bonus
from finance.emp_sal
where created_at < $1::timestamptz + interval '1 hour'
order by emp_id, created_at desc`

// SelectEmpDetail extracts the latest HR row per employee created before the end of the interval starting at $1.
const SelectEmpDetail = `select distinct on (emp_id) cast(emp_id as varchar) as emp_id,
  first_name,
  last_name,
  department,
  job_title,
  to_char(hire_date, 'YYYY-MM-DD') as hire_date
from hr.emp_detail
where created_at < $1::timestamptz + interval '1 hour'
order by emp_id, created_at desc`

// SelectDimCurrent fetches the current version of each dimension row ordered by emp_id as text,
// matching the order of the joined source rows.
// <SCHEMA> and <TABLE> are replaced before execution.
const SelectDimCurrent = `select to_varchar(emp_id) as emp_id,
  first_name,
  last_name,
  department,
  job_title,
  to_varchar(hire_date, 'YYYY-MM-DD') as hire_date,
  to_varchar(salary, 'FM9999999990.00') as salary,
  to_varchar(bonus, 'FM9999999990.00') as bonus
from <SCHEMA>.<TABLE>
where is_current = true
order by to_varchar(emp_id)`

// Literal SET columns and values used to close and open dimension row versions.
var (
	dimUpdateLiterals = [][2]string{
		{"is_current", "false"},
		{"valid_to", "current_timestamp()"},
	}
	dimInsertLiterals = [][2]string{
		{"is_current", "true"},
		{"valid_from", "current_timestamp()"},
	}
)

const dimCurrentPredicate = "is_current = true"

func getDimCurrentReplacements(schema, table string) map[string]string {
	return map[string]string{
		"<SCHEMA>": strings.TrimSpace(schema),
		"<TABLE>":  strings.TrimSpace(table),
	}
}

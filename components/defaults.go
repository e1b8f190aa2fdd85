package components

// Default field names are used by components to know the names of input and output fields.
var Defaults = struct {
	ChanField4CSVFileName  string // the full path of a CSV file produced by NewCsvFileWriter.
	ChanField4CSVRowCount  string // the number of data rows in the CSV file.
	ChanField4S3Key        string // the S3 key a file was copied to.
	ChanField4BucketName   string
	ChanField4RowsAffected string // the total rows affected by NewSqlExec.
	ChanField4StmtCount    string // the number of statements executed by NewSqlExec.
}{
	ChanField4CSVFileName:  "#CSVFileName",
	ChanField4CSVRowCount:  "#CSVRowCount",
	ChanField4S3Key:        "#S3Key",
	ChanField4BucketName:   "#BucketName",
	ChanField4RowsAffected: "#RowsAffected",
	ChanField4StmtCount:    "#StatementCount",
}

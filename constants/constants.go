package constants

// Component

const (
	MergeDiffValueNew            = "N"
	MergeDiffValueChanged        = "C"
	MergeDiffValueDeleted        = "D"
	MergeDiffValueIdentical      = "I"
	DiffStatusFieldName          = "#diffStatus"
	ChanSize                     = 20000
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ      = "20060102T150405-0700" // a format that includes the time zone and is compatible with Postgres and Snowflake.
	CsvFileNameFieldName         = "#csvFileName"
	SqlExecBatchSizeDefault      = 1000
	EmojiBang                    = "\U0001F4A5"
	AppName                      = "empetl"
	EnvVarPrefix                 = "EMPETL" // prefixed for environment variables in twelveFactorMode
	EnvVarTwelveFactorMode       = EnvVarPrefix + "_12FACTOR_MODE"
	EnvVarLogJson                = EnvVarPrefix + "_LOG_JSON"
	ConfigDirName                = ".empetl"
	ConnectionTypePostgres       = "postgres"
	ConnectionTypeSnowflake      = "snowflake"
	ConnectionTypeS3             = "s3"
	ConnectionTypeMockPostgres   = "mockPostgres"
	ConnectionTypeMockSnowflake  = "mockSnowflake"
)

// ETL DAG

const (
	DagIdEtl                   = "ETL_Dag"
	DagStartDate               = "2023-05-12T00:00:00Z"
	DagScheduleHourly          = "0 * * * *" // @hourly
	TaskIdExtractFinance       = "extract_finance"
	TaskIdExtractHr            = "extract_hr"
	TaskIdJoinAndDetect        = "join_and_detect_new_or_changed_rows"
	TaskIdCheckIdsToUpdate     = "check_ids_to_update"
	TaskIdCheckRowsToInsert    = "check_rows_to_insert"
	TaskIdSnowflakeUpdate      = "snowflake_update_task"
	TaskIdSnowflakeInsert      = "snowflake_insert_task"
	TaskIdSkipSnowflakeInsert  = "skip_snowflake_insert_task"
	XComKeyIdsToUpdate         = "ids_to_update"
	XComKeyRowsToInsert        = "rows_to_insert"
	XComKeyS3Key               = "s3_key"
	XComKeyRowCount            = "row_count"
	DefaultS3Bucket            = "staging.emp.data"
	DefaultS3Region            = "eu-west-2"
	DefaultS3KeyFinance        = "Dina_emp_data.csv"
	DefaultS3KeyHr             = "Dina_hr_sal.csv"
	DefaultTargetSchema        = "dwh"
	DefaultTargetTable         = "emp_dim"
	DefaultSourceConnection    = "postgres"
	DefaultWarehouseConnection = "snowflake"
	DefaultS3Connection        = "s3"
	DefaultMaxActiveTasks      = 4
	DefaultWebPort             = 8080
	DefaultRunHistory          = 48
	EmpIdFieldName             = "emp_id"
)

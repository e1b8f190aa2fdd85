package actions

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/aws/s3"
	"github.com/relloyd/empetl/components"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms"
	"github.com/relloyd/empetl/rdbms/shared"
)

// EtlConfig holds the settings of ETL_Dag.
type EtlConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	SourceConnection          string `errorTxt:"source connection name" mandatory:"yes"`
	WarehouseConnection       string `errorTxt:"warehouse connection name" mandatory:"yes"`
	S3Connection              string // optional; S3Bucket and S3Region are used if it is not configured.
	S3Bucket                  string `errorTxt:"S3 bucket" mandatory:"yes"`
	S3Prefix                  string
	S3Region                  string `errorTxt:"S3 region" mandatory:"yes"`
	FinanceKey                string `errorTxt:"S3 key for finance data" mandatory:"yes"`
	HrKey                     string `errorTxt:"S3 key for HR data" mandatory:"yes"`
	TargetSchema              string `errorTxt:"target schema" mandatory:"yes"`
	TargetTable               string `errorTxt:"target table" mandatory:"yes"`
	SourceFilter              string // optional JsonLogic rule applied to joined source rows.
	BatchSize                 int
	MaxActiveTasks            int
	StatsDumpFrequencySeconds int
	WebPort                   int
	StartDate                 time.Time
}

func NewDefaultEtlConfig() *EtlConfig {
	startDate, _ := time.Parse(time.RFC3339, c.DagStartDate)
	return &EtlConfig{
		LogLevel:            "info",
		SourceConnection:    c.DefaultSourceConnection,
		WarehouseConnection: c.DefaultWarehouseConnection,
		S3Connection:        c.DefaultS3Connection,
		S3Bucket:            c.DefaultS3Bucket,
		S3Region:            c.DefaultS3Region,
		FinanceKey:          c.DefaultS3KeyFinance,
		HrKey:               c.DefaultS3KeyHr,
		TargetSchema:        c.DefaultTargetSchema,
		TargetTable:         c.DefaultTargetTable,
		BatchSize:           c.SqlExecBatchSizeDefault,
		MaxActiveTasks:      c.DefaultMaxActiveTasks,
		WebPort:             c.DefaultWebPort,
		StartDate:           startDate,
	}
}

// Validate checks mandatory fields and the optional source filter.
func (cfg *EtlConfig) Validate(log logger.Logger) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0, got %v", cfg.BatchSize)
	}
	if cfg.SourceFilter != "" {
		if err := validateSourceFilter(log, cfg.SourceFilter); err != nil {
			return errors.Wrap(err, "invalid source filter")
		}
	}
	return nil
}

// EtlDeps are the connections used by the tasks of ETL_Dag.
type EtlDeps struct {
	SourceConnector    shared.Connector
	WarehouseConnector shared.Connector
	S3Client           s3.BasicClient
}

func (d *EtlDeps) Close() {
	if d.SourceConnector != nil {
		d.SourceConnector.Close()
	}
	if d.WarehouseConnector != nil {
		d.WarehouseConnector.Close()
	}
}

// OpenEtlDeps opens the source and warehouse databases and builds the S3 client named in cfg.
// If the S3 connection can't be loaded the bucket and region in cfg are used.
func OpenEtlDeps(log logger.Logger, cfg *EtlConfig, loader ConnectionLoader) (*EtlDeps, error) {
	deps := &EtlDeps{}
	var err error
	open := func(name string, wantTypes ...string) (shared.Connector, error) {
		d, err := loader.LoadConnection(name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load connection %q", name)
		}
		if !helper.StringInSlice(d.Type, wantTypes) {
			return nil, fmt.Errorf("connection %q has type %q, expected one of %v", name, d.Type, wantTypes)
		}
		log.Debug("connection ", name, ":\n", d)
		return rdbms.OpenDbConnection(log, d)
	}
	deps.SourceConnector, err = open(cfg.SourceConnection, c.ConnectionTypePostgres, c.ConnectionTypeMockPostgres)
	if err != nil {
		return nil, err
	}
	deps.WarehouseConnector, err = open(cfg.WarehouseConnection, c.ConnectionTypeSnowflake, c.ConnectionTypeMockSnowflake)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if cfg.S3Connection != "" {
		if d, err := loader.LoadConnection(cfg.S3Connection); err == nil {
			b, err := s3.NewAwsBucket(&d)
			if err != nil {
				deps.Close()
				return nil, errors.Wrapf(err, "invalid S3 connection %q", cfg.S3Connection)
			}
			cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region = b.Name, b.Prefix, b.Region
		} else {
			log.Info("S3 connection ", cfg.S3Connection, " not configured, using bucket ", cfg.S3Bucket, " in region ", cfg.S3Region)
		}
	}
	deps.S3Client = s3.NewBasicClient(cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	return deps, nil
}

func validateSourceFilter(log logger.Logger, rule string) error {
	return components.ValidateFilter(log, components.FilterRowsJsonLogic, components.FilterMetadata(rule))
}

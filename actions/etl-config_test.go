package actions

import (
	"testing"

	"github.com/pkg/errors"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapConnectionLoader map[string]shared.ConnectionDetails

func (m mapConnectionLoader) LoadConnection(name string) (shared.ConnectionDetails, error) {
	d, ok := m[name]
	if !ok {
		return d, errors.Errorf("connection %q not found", name)
	}
	return d, nil
}

func TestEtlConfigValidate(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	cfg := NewDefaultEtlConfig()
	require.NoError(t, cfg.Validate(log))
	assert.Equal(t, c.DefaultS3Bucket, cfg.S3Bucket)
	assert.Equal(t, "Dina_emp_data.csv", cfg.FinanceKey)
	assert.Equal(t, "Dina_hr_sal.csv", cfg.HrKey)

	cfg.BatchSize = 0
	require.Error(t, cfg.Validate(log))

	cfg = NewDefaultEtlConfig()
	cfg.TargetTable = ""
	err := cfg.Validate(log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target table")

	cfg = NewDefaultEtlConfig()
	cfg.SourceFilter = `{"bogus": [}`
	require.Error(t, cfg.Validate(log))
}

func TestOpenEtlDeps(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	loader := mapConnectionLoader{
		"postgres":  {Type: c.ConnectionTypeMockPostgres, LogicalName: "postgres"},
		"snowflake": {Type: c.ConnectionTypeMockSnowflake, LogicalName: "snowflake"},
		"s3": {Type: c.ConnectionTypeS3, LogicalName: "s3", Data: map[string]string{
			"dsn": "s3://other.bucket/hourly", "region": "us-east-1",
		}},
	}
	// Test 1 - S3 connection overrides the default bucket.
	cfg := NewDefaultEtlConfig()
	deps, err := OpenEtlDeps(log, cfg, loader)
	require.NoError(t, err)
	defer deps.Close()
	assert.Equal(t, "other.bucket", cfg.S3Bucket)
	assert.Equal(t, "hourly", cfg.S3Prefix)
	assert.Equal(t, "other.bucket", deps.S3Client.GetBucket())
	assert.Equal(t, c.ConnectionTypeMockPostgres, deps.SourceConnector.GetType())

	// Test 2 - missing S3 connection falls back to the configured bucket.
	delete(loader, "s3")
	cfg = NewDefaultEtlConfig()
	deps, err = OpenEtlDeps(log, cfg, loader)
	require.NoError(t, err)
	assert.Equal(t, c.DefaultS3Bucket, deps.S3Client.GetBucket())

	// Test 3 - connections of the wrong type are rejected.
	cfg = NewDefaultEtlConfig()
	cfg.SourceConnection, cfg.WarehouseConnection = "snowflake", "postgres"
	_, err = OpenEtlDeps(log, cfg, loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of")

	// Test 4 - missing database connection.
	cfg = NewDefaultEtlConfig()
	cfg.WarehouseConnection = "nope"
	_, err = OpenEtlDeps(log, cfg, loader)
	require.Error(t, err)
}

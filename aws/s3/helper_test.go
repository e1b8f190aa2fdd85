package s3

import (
	"testing"

	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/rdbms/shared"
)

func TestParseDSN(t *testing.T) {
	// Test 1 - bucket names with dots and no scheme.
	b, err := ParseDSN("staging.emp.data", "eu-west-2")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "staging.emp.data" || b.Prefix != "" || b.Region != "eu-west-2" {
		t.Fatalf("unexpected bucket %+v", b)
	}
	// Test 2 - prefix is trimmed.
	b, err = ParseDSN("s3://staging.emp.data/hourly/", "eu-west-2")
	if err != nil {
		t.Fatal(err)
	}
	if b.Prefix != "hourly" || b.String() != "s3://staging.emp.data/hourly" {
		t.Fatalf("unexpected bucket %+v", b)
	}
	// Test 3 - wrong scheme.
	if _, err = ParseDSN("gs://bucket", "eu-west-2"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
	// Test 4 - region is mandatory.
	if _, err = ParseDSN("s3://bucket", ""); err == nil {
		t.Fatal("expected error for missing region")
	}
}

func TestNewAwsBucket(t *testing.T) {
	b := AwsS3Bucket{Name: "staging.emp.data", Region: "eu-west-2"}
	c := &shared.ConnectionDetails{Type: constants.ConnectionTypeS3, LogicalName: "s3", Data: b.GetMap(nil)}
	got, err := NewAwsBucket(c)
	if err != nil {
		t.Fatal(err)
	}
	if got != b {
		t.Fatalf("expected %+v; got %+v", b, got)
	}
	c.Type = constants.ConnectionTypeSnowflake
	if _, err = NewAwsBucket(c); err == nil {
		t.Fatal("expected error for non-S3 connection")
	}
}

func TestAwsS3BucketParse(t *testing.T) {
	// Test 1 - DSN wins over the individual fields.
	b := &AwsS3Bucket{Dsn: "s3://staging.emp.data/hourly/", Name: "ignored", Region: "eu-west-2"}
	if err := b.Parse(); err != nil {
		t.Fatal(err)
	}
	if b.Name != "staging.emp.data" || b.Prefix != "hourly" {
		t.Fatalf("unexpected bucket %+v", b)
	}
	// Test 2 - individual fields.
	b = &AwsS3Bucket{Name: "staging.emp.data", Prefix: "/a/b/", Region: "eu-west-2"}
	if err := b.Parse(); err != nil {
		t.Fatal(err)
	}
	if b.Prefix != "a/b" {
		t.Fatalf("unexpected prefix %q", b.Prefix)
	}
	if s, _ := b.GetScheme(); s != constants.ConnectionTypeS3 {
		t.Fatalf("unexpected scheme %q", s)
	}
	// Test 3 - missing bucket.
	if err := (&AwsS3Bucket{Region: "eu-west-2"}).Parse(); err == nil {
		t.Fatal("expected error for missing bucket name")
	}
}

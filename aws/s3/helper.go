package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/rdbms/shared"
)

type AwsS3Bucket struct {
	Dsn    string // optional s3://<bucket>[/<prefix>], takes priority over Name and Prefix.
	Name   string `errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes"`
}

// Parse populates Name and Prefix from Dsn if it is set and validates the result.
func (d *AwsS3Bucket) Parse() error {
	dsn := d.Dsn
	if dsn == "" {
		dsn = AwsS3Bucket{Name: d.Name, Prefix: strings.Trim(d.Prefix, "/")}.String()
	}
	b, err := ParseDSN(dsn, d.Region)
	if err != nil {
		return err
	}
	d.Name, d.Prefix = b.Name, b.Prefix
	return nil
}

func (d *AwsS3Bucket) GetScheme() (string, error) {
	return constants.ConnectionTypeS3, nil
}

// String returns the bucket in DSN form s3://<bucket>[/<prefix>].
func (d AwsS3Bucket) String() string {
	if d.Prefix == "" {
		return fmt.Sprintf("%v://%v", constants.ConnectionTypeS3, d.Name)
	}
	return fmt.Sprintf("%v://%v/%v", constants.ConnectionTypeS3, d.Name, d.Prefix)
}

func (d AwsS3Bucket) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Dsn] = d.String()
	m[shared.DefaultDsnConnectionKeyNames.Region] = d.Region
	return m
}

// NewAwsBucket converts S3 ConnectionDetails into an AwsS3Bucket.
func NewAwsBucket(c *shared.ConnectionDetails) (AwsS3Bucket, error) {
	if c.Type != constants.ConnectionTypeS3 {
		return AwsS3Bucket{}, fmt.Errorf("connection %q is of type %q, expected %q", c.LogicalName, c.Type, constants.ConnectionTypeS3)
	}
	return ParseDSN(c.Data[shared.DefaultDsnConnectionKeyNames.Dsn], c.Data[shared.DefaultDsnConnectionKeyNames.Region])
}

// ParseDSN expects bucketPrefix to be of the form [s3://]<bucket>/<prefix>
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// If there is a parsing error it returns an error.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := constants.ConnectionTypeS3
	if !strings.Contains(bucketPrefix, "://") { // if there is no scheme then the bucket would be parsed as a path...
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}

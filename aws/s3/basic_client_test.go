package s3

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3API keeps objects in memory. Unimplemented S3API methods panic via the nil embedded interface.
type fakeS3API struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3API) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3API) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: ioutil.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3API) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3API) ListObjectsWithContext(_ aws.Context, in *s3.ListObjectsInput, _ ...request.Option) (*s3.ListObjectsOutput, error) {
	out := &s3.ListObjectsOutput{IsTruncated: aws.Bool(false)}
	for k := range f.objects {
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k[len(aws.StringValue(in.Bucket))+1:])})
	}
	return out, nil
}

func TestBasicClient(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3API{objects: make(map[string][]byte)}
	c := NewBasicClientWithAPI("staging.emp.data", "eu-west-2", "hourly/", api)
	// Test 1 - put then get with prefix.
	if err := c.Put(ctx, "a.csv", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if _, ok := api.objects["staging.emp.data/hourly/a.csv"]; !ok {
		t.Fatalf("expected prefixed key; got %v", api.objects)
	}
	// Test 2 - put overwrites.
	if err := c.BufferPut(ctx, "a.csv", bytes.NewReader([]byte("v2"))); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "a.csv")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Fatalf("expected overwritten value; got %q", got)
	}
	// Test 3 - list.
	keys, err := c.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key; got %v", keys)
	}
	// Test 4 - missing keys map to ErrKeyNotFound.
	if err := c.Delete(ctx, "a.csv"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "a.csv"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound; got %v", err)
	}
	if c.GetBucket() != "staging.emp.data" {
		t.Fatal("unexpected bucket name")
	}
}

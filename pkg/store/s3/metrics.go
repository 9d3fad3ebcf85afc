package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Metrics observes the S3 requests a sandbox issues.
//
// Implementations must be safe for concurrent use. A nil Metrics in Config
// disables collection.
type Metrics interface {
	// ObserveOperation records one S3 request with its duration and outcome.
	// A missing key on HeadObject is an answer, not a failure, and is
	// reported with a nil err.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved by operation.
	RecordBytes(operation string, bytes int64)
}

// instrumentedClient times every call to the wrapped Client.
type instrumentedClient struct {
	Client
	metrics Metrics
}

func (c *instrumentedClient) observe(op string, start time.Time, err error) {
	c.metrics.ObserveOperation(op, time.Since(start), err)
}

func (c *instrumentedClient) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	start := time.Now()
	out, err := c.Client.HeadBucket(ctx, in, optFns...)
	c.observe("HeadBucket", start, err)
	return out, err
}

func (c *instrumentedClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.HeadObject(ctx, in, optFns...)
	observed := err
	if isNotFound(err) {
		observed = nil
	}
	c.observe("HeadObject", start, observed)
	return out, err
}

func (c *instrumentedClient) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.GetObject(ctx, in, optFns...)
	c.observe("GetObject", start, err)
	if err == nil {
		c.metrics.RecordBytes("read", aws.ToInt64(out.ContentLength))
	}
	return out, err
}

func (c *instrumentedClient) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.PutObject(ctx, in, optFns...)
	c.observe("PutObject", start, err)
	if err == nil {
		c.metrics.RecordBytes("write", aws.ToInt64(in.ContentLength))
	}
	return out, err
}

func (c *instrumentedClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.DeleteObject(ctx, in, optFns...)
	c.observe("DeleteObject", start, err)
	return out, err
}

func (c *instrumentedClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	start := time.Now()
	out, err := c.Client.DeleteObjects(ctx, in, optFns...)
	c.observe("DeleteObjects", start, err)
	return out, err
}

func (c *instrumentedClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	start := time.Now()
	out, err := c.Client.ListObjectsV2(ctx, in, optFns...)
	c.observe("ListObjectsV2", start, err)
	return out, err
}

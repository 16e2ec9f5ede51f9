// Package archive uploads downloaded circular documents to S3 so the
// local copy left by the fetch stage is not the only one.
package archive

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver stores a named document payload. Implementations must be
// safe for concurrent use.
type Archiver interface {
	Archive(ctx context.Context, name string, body io.Reader, contentType string) error
}

// S3Config configures the S3-backed archiver. Region and Profile fall
// back to the standard AWS config chain when empty.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// S3Archiver implements Archiver on an S3 bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver using the default AWS configuration
// chain with optional overrides.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Archiver{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Archive writes the payload under <prefix>circulars/<name>.
func (a *S3Archiver) Archive(ctx context.Context, name string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.prefix + "circulars/" + name),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	_, err := a.client.PutObject(ctx, in)
	return err
}

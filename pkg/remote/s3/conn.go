// Package s3 implements remote.Conn over an S3 (or S3-compatible) bucket.
//
// Object stores have no working directory, so navigation is emulated: the
// connection tracks a prefix stack, List enumerates one level using the "/"
// delimiter, and ChangeDir/ChangeDirToParent push and pop prefix segments.
// This lets dated-folder naming conventions work unchanged on buckets.
package s3

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/automailhq/automail/pkg/remote"
)

// Conn implements remote.Conn against a bucket.
type Conn struct {
	client *awss3.Client
	bucket string

	// dirs is the emulated working-directory stack, innermost last.
	dirs []string
}

var _ remote.Conn = (*Conn)(nil)

// Dial builds an S3 client and verifies the base prefix is listable.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &remote.Error{Op: "Dial", Backend: "s3", Err: err}
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &remote.Error{Op: "Dial", Backend: "s3", Err: wrapSentinel(err, remote.ErrUnreachable)}
	}

	opts := []func(*awss3.Options){
		func(o *awss3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	c := &Conn{client: awss3.NewFromConfig(awsCfg, opts...), bucket: cfg.Bucket}
	for _, seg := range splitPrefix(cfg.BaseDir) {
		c.dirs = append(c.dirs, seg)
	}

	// A dial that cannot list the base prefix is reported up front, matching
	// the connect-then-cwd contract of the FTP backend.
	if _, err := c.List(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)
	return awsCfg, nil
}

// List enumerates one directory level under the current prefix.
//
// Common prefixes come back as bare names (no trailing slash) so dated-folder
// selection sees the same strings an FTP NLST would produce.
func (c *Conn) List(ctx context.Context) ([]string, error) {
	prefix := c.prefix()

	var names []string
	var token *string
	for {
		out, err := c.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &remote.Error{Op: "List", Backend: "s3", Err: wrapSentinel(err, remote.ErrTransfer)}
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" {
				names = append(names, name)
			}
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return names, nil
		}
		token = out.NextContinuationToken
	}
}

// ChangeDir pushes the named segment onto the prefix stack after verifying
// at least one key exists under it.
func (c *Conn) ChangeDir(ctx context.Context, name string) error {
	candidate := c.prefix() + name + "/"
	out, err := c.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		Prefix:  aws.String(candidate),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return &remote.Error{Op: "ChangeDir", Backend: "s3", Name: name, Err: wrapSentinel(err, remote.ErrTransfer)}
	}
	if len(out.Contents) == 0 {
		return &remote.Error{Op: "ChangeDir", Backend: "s3", Name: name, Err: remote.ErrPathNotFound}
	}
	c.dirs = append(c.dirs, name)
	return nil
}

// ChangeDirToParent pops one segment off the prefix stack.
func (c *Conn) ChangeDirToParent(ctx context.Context) error {
	if len(c.dirs) == 0 {
		return &remote.Error{Op: "ChangeDirToParent", Backend: "s3", Err: remote.ErrPathNotFound}
	}
	c.dirs = c.dirs[:len(c.dirs)-1]
	return nil
}

// Retrieve streams the object at the current prefix to w.
func (c *Conn) Retrieve(ctx context.Context, name string, w io.Writer) error {
	out, err := c.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.prefix() + name),
	})
	if err != nil {
		return &remote.Error{Op: "Retrieve", Backend: "s3", Name: name, Err: wrapSentinel(err, remote.ErrTransfer)}
	}
	defer func() { _ = out.Body.Close() }()

	if _, err := io.Copy(w, out.Body); err != nil {
		return &remote.Error{Op: "Retrieve", Backend: "s3", Name: name, Err: wrapSentinel(err, remote.ErrTransfer)}
	}
	return nil
}

// Close releases nothing; the S3 client needs no explicit cleanup.
func (c *Conn) Close() error {
	return nil
}

func (c *Conn) prefix() string {
	if len(c.dirs) == 0 {
		return ""
	}
	return strings.Join(c.dirs, "/") + "/"
}

func splitPrefix(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// wrapSentinel maps SDK errors to remote sentinel errors, falling back to the
// supplied default classification.
func wrapSentinel(err error, fallback error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		return errors.Join(remote.ErrNotFound, err)
	case errors.As(err, &noSuchBucket):
		return errors.Join(remote.ErrPathNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.Join(remote.ErrNotFound, err)
		case "NoSuchBucket":
			return errors.Join(remote.ErrPathNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Join(remote.ErrAuthFailed, err)
		case "ServiceUnavailable", "InternalError":
			return errors.Join(remote.ErrUnreachable, err)
		}
	}

	return errors.Join(fallback, err)
}

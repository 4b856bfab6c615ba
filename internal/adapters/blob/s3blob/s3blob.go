// Package s3blob keeps media payloads in an s3 compatible bucket
// s3 cannot join the sql tx, objects are written immediately and discarded when the tx fails
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/config"
	perr "mdms/internal/platform/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Config selects the bucket and how to reach it
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // minio and friends, empty for aws
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// ConfigFrom reads SERVICE_S3_* style keys from c
func ConfigFrom(c config.Conf) Config {
	return Config{
		Bucket:       c.MayString("BUCKET", ""),
		Prefix:       c.MayString("PREFIX", "media"),
		Region:       c.MayString("REGION", "us-east-1"),
		Endpoint:     c.MayString("ENDPOINT", ""),
		AccessKey:    c.MayString("ACCESS_KEY_ID", ""),
		SecretKey:    c.MayString("SECRET_ACCESS_KEY", ""),
		UsePathStyle: c.MayBool("PATH_STYLE", false),
	}
}

// objectAPI is the slice of the s3 client the store calls
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is the bucket backed blob store
type Store struct {
	api    objectAPI
	bucket string
	prefix string
}

// New loads aws config, static keys win over the default credential chain
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, perr.Validationf("s3blob: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "s3blob: load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newWithAPI(client, cfg), nil
}

func newWithAPI(api objectAPI, cfg Config) *Store {
	return &Store{api: api, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

// Name reports the backend
func (*Store) Name() string { return "s3" }

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put uploads data right away, q is ignored
func (s *Store) Put(ctx context.Context, _ repokit.Queryer, key string, data []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "s3blob: put %s", key)
	}
	return nil
}

// Get downloads the object, a missing key is not found
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, perr.NotFoundf("blob %s not found", key)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "s3blob: get %s", key)
	}
	defer func() { _ = out.Body.Close() }()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "s3blob: read %s", key)
	}
	return b, nil
}

// Discard deletes the object, s3 treats a missing key as success
func (s *Store) Discard(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "s3blob: delete %s", key)
	}
	return nil
}

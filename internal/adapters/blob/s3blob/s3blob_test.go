package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"mdms/internal/platform/config"
	perr "mdms/internal/platform/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newFake() *fakeS3 { return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestPutGetDiscard(t *testing.T) {
	t.Parallel()

	api := newFake()
	s := newWithAPI(api, Config{Bucket: "complaints", Prefix: "/media/"})
	ctx := context.Background()

	if err := s.Put(ctx, nil, "abc", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := api.objects["complaints/media/abc"]; !ok {
		t.Fatalf("object key not prefixed: %v", api.objects)
	}
	if api.types["media/abc"] != "image/jpeg" {
		t.Fatalf("content type = %q", api.types["media/abc"])
	}

	b, err := s.Get(ctx, "abc")
	if err != nil || string(b) != "jpeg" {
		t.Fatalf("Get = %q, %v", b, err)
	}

	if err := s.Discard(ctx, "abc"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := s.Get(ctx, "abc"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("after discard err = %v", err)
	}
}

func TestPutFailureIsStorage(t *testing.T) {
	t.Parallel()

	api := newFake()
	api.fail = errors.New("503 slow down")
	s := newWithAPI(api, Config{Bucket: "b"})
	err := s.Put(context.Background(), nil, "k", []byte("x"), "")
	if !perr.IsCode(err, perr.ErrorCodeStorage) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigFrom(t *testing.T) {
	t.Setenv("SERVICE_S3_BUCKET", "city-media")
	t.Setenv("SERVICE_S3_PATH_STYLE", "1")
	cfg := ConfigFrom(configFor("SERVICE_S3_"))
	if cfg.Bucket != "city-media" || !cfg.UsePathStyle || cfg.Prefix != "media" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func configFor(prefix string) config.Conf { return config.New().Prefix(prefix) }

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// ErrInvalidArchiveName is returned for empty or path-escaping object names.
var ErrInvalidArchiveName = errors.New("invalid archive name")

// Archiver stores an exported document and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}

func cleanName(name string) (string, error) {
	name = strings.TrimLeft(filepath.ToSlash(strings.TrimSpace(name)), "/")
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidArchiveName)
	}
	return name, nil
}

// =============================================================================
// S3 ARCHIVER - Any S3-compatible object store (AWS, R2, MinIO)
// =============================================================================

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS itself
	AccessKey string
	SecretKey string
	Prefix    string // key prefix, e.g. "payroll/"
}

type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds a client from static credentials when given, and
// from the default AWS chain otherwise.
func NewS3Archiver(ctx context.Context, opts S3Options) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 archiver: bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loaders := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archiver{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

// Archive uploads body and returns an s3:// location.
func (a *S3Archiver) Archive(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	key := a.prefix + name

	// PutObject needs a seekable body to sign the payload.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return "s3://" + a.bucket + "/" + key, nil
}

// =============================================================================
// DIR ARCHIVER - Local filesystem, for development and single-node setups
// =============================================================================

type DirArchiver struct {
	Root string
}

func NewDirArchiver(root string) (*DirArchiver, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &DirArchiver{Root: root}, nil
}

// Archive writes body under Root, replacing any previous file atomically.
func (a *DirArchiver) Archive(ctx context.Context, name string, body io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(a.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}

var (
	_ Archiver = (*S3Archiver)(nil)
	_ Archiver = (*DirArchiver)(nil)
)

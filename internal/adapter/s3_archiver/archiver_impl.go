package s3_archiver

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/pkg/utils"
	"go.uber.org/zap"
)

const defaultRegion = "us-east-1"

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the bucket. An empty Endpoint talks to AWS; any other value (MinIO,
// localstack) switches to path-style addressing. Empty keys fall back to the default credential chain.
type Options struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// S3Archiver uploads each page as one object.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

func NewS3Archiver(ctx context.Context, opts Options, logger *zap.Logger) (*S3Archiver, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archiver(client, opts.Bucket, opts.Prefix, logger), nil
}

func newS3Archiver(client putObjectAPI, bucket, prefix string, logger *zap.Logger) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (a *S3Archiver) Save(ctx context.Context, pageURL, html string) error {
	key := a.prefix + ObjectKey(pageURL)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(html),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrArchiveFailed, pageURL, err)
	}

	a.logger.Debug("uploaded page", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// ObjectKey maps a URL to host/path. Directory-like paths get index.html; a query string is
// folded into a hashed file name so variants of one path do not overwrite each other.
func ObjectKey(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "_/" + utils.HashURL(pageURL) + ".html"
	}

	key := u.Host + u.EscapedPath()
	if u.RawQuery != "" {
		return strings.TrimSuffix(key, "/") + "/_q_" + utils.HashURL(u.RawQuery)[:16] + ".html"
	}
	if strings.HasSuffix(key, "/") || u.Path == "" {
		return strings.TrimSuffix(key, "/") + "/index.html"
	}
	if path.Ext(u.Path) == "" {
		return key + "/index.html"
	}
	return key
}

package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/config"
)

// S3Store implements Store for S3-compatible storage.
type S3Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	endpoint string
}

// NewS3Store creates a new S3Store from configuration.
func NewS3Store(cfg *config.S3) (*S3Store, error) {
	accessKey := os.Getenv(cfg.AccessKeyEnv)
	if accessKey == "" {
		return nil, fmt.Errorf("S3 access key environment variable %s is not set", cfg.AccessKeyEnv)
	}

	secretKey := os.Getenv(cfg.SecretKeyEnv)
	if secretKey == "" {
		return nil, fmt.Errorf("S3 secret key environment variable %s is not set", cfg.SecretKeyEnv)
	}

	// Build S3 client options
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		},
	}

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for most S3-compatible services
		})
	}

	client := s3.New(s3.Options{}, opts...)

	return &S3Store{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		endpoint: cfg.Endpoint,
	}, nil
}

// List enumerates dated backup objects under the configured prefix.
func (s *S3Store) List(ctx context.Context) ([]Artifact, error) {
	var artifacts []Artifact

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := key
			if i := strings.LastIndexByte(key, '/'); i >= 0 {
				name = key[i+1:]
			}
			date, ok := ParseDate(name)
			if !ok {
				continue
			}
			artifacts = append(artifacts, Artifact{
				Date: date,
				Key:  key,
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	return artifacts, nil
}

// Open retrieves the backup object from S3.
func (s *S3Store) Open(ctx context.Context, a Artifact) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(a.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object s3://%s/%s: %w", s.bucket, a.Key, err)
	}
	return result.Body, nil
}

// Identifier returns the S3 URI for traceability.
func (s *S3Store) Identifier() string {
	if s.endpoint != "" {
		return fmt.Sprintf("s3://%s/%s (endpoint: %s)", s.bucket, s.prefix, s.endpoint)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

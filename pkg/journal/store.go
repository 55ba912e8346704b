package journal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store is the interface for journal storage backends.
type Store interface {
	// Put writes data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error

	// Describe returns where key would be written, for messages.
	Describe(key string) string
}

// FileStore stores journals on the local filesystem.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Put writes data to dir/key through a temp file and a rename.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Describe returns the file path for key.
func (s *FileStore) Describe(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// PutObjectAPI is the part of the S3 client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores journals in AWS S3.
//
// Example usage:
//
//	client := journal.NewS3Client("eu-west-1")
//	store := journal.NewS3Store(client, "my-bucket", "journals/")
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Store creates a new S3 journal store.
func NewS3Store(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads data to bucket/prefix+key.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"export-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Describe returns the s3:// URL for key.
func (s *S3Store) Describe(key string) string {
	return "s3://" + s.bucket + "/" + s.prefix + key
}

// NewS3Client creates an S3 client for region using credentials from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables.
func NewS3Client(region string) *s3.Client {
	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	})
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}

// splitS3 splits "s3://bucket/some/key" into bucket and key.
func splitS3(target string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(target, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", false
	}
	return bucket, key, true
}

// Package backup snapshots the database file to S3-compatible object storage.
//
// A snapshot is a plain copy of the SQLite database uploaded under a
// timestamped key. Restore downloads a chosen snapshot back to disk; the
// server must be stopped while restoring.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/bistrokit/bistro/internal/logger"
)

// Config configures the S3 snapshot store.
type Config struct {
	// Enabled controls whether backup commands are available.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Bucket is the target S3 bucket. Required when enabled.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region.
	// Default: us-east-1
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the S3 endpoint (for MinIO / localstack).
	// When set, path-style addressing is used.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Prefix is prepended to every snapshot key.
	// Default: "snapshots"
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// AccessKeyID and SecretAccessKey are static credentials. When empty the
	// default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Prefix == "" {
		c.Prefix = "snapshots"
	}
}

// Validate checks the configuration. Only meaningful when Enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Bucket == "" {
		return errors.New("backup bucket is required when backup is enabled")
	}
	return nil
}

// Snapshot describes one stored database snapshot.
type Snapshot struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store uploads and downloads database snapshots.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds a snapshot store from config. The S3 client is constructed from
// the default AWS credential chain unless static credentials are configured.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required for localstack/MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Create uploads the database file at dbPath and returns the snapshot key.
// The key embeds the creation time so listings sort chronologically.
func (s *Store) Create(ctx context.Context, dbPath string) (string, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("open database file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat database file: %w", err)
	}

	key := path.Join(s.prefix, fmt.Sprintf("bistro-%s-%s.db",
		time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8]))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	logger.Info("database snapshot uploaded",
		"bucket", s.bucket, "key", key, "size", info.Size())
	return key, nil
}

// List returns all snapshots under the configured prefix, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	var snapshots []Snapshot

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			snap := Snapshot{Key: aws.ToString(obj.Key)}
			if obj.Size != nil {
				snap.Size = *obj.Size
			}
			if obj.LastModified != nil {
				snap.LastModified = *obj.LastModified
			}
			snapshots = append(snapshots, snap)
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].LastModified.After(snapshots[j].LastModified)
	})
	return snapshots, nil
}

// Restore downloads the snapshot at key to destPath. Any existing file at
// destPath is replaced atomically via a temp file in the same directory.
func (s *Store) Restore(ctx context.Context, key, destPath string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return fmt.Errorf("snapshot %s not found", key)
		}
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".bistro-restore-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, result.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("replace database file: %w", err)
	}

	logger.Info("database snapshot restored", "key", key, "path", destPath)
	return nil
}

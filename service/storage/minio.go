package storage

import (
	"bytes"
	"context"
	"io"

	"deadlock/service/etc"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MinIO is a storage backend for minio
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO connects to MinIO and creates the bucket if it does not exist.
func NewMinIO(cfg *etc.Configuration) (*MinIO, error) {
	conf := cfg.Storage.MinIO
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKeyID, conf.SecretAccessKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize minio client")
	}

	ctx := context.Background()
	exist, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check bucket %s", conf.Bucket)
	}
	if !exist {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", conf.Bucket)
		}
	}
	log.WithField("bucket", conf.Bucket).Info("MinIO client initialized")
	return &MinIO{client: client, bucket: conf.Bucket}, nil
}

// Read returns the bytes of the object
func (m *MinIO) Read(ctx context.Context, path string) ([]byte, error) {
	reader, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func(reader *minio.Object) {
		if err := reader.Close(); err != nil {
			log.WithError(err).Error("Failed to close minio reader")
		}
	}(reader)
	return io.ReadAll(reader)
}

// Write writes the object to minio
func (m *MinIO) Write(ctx context.Context, path string, data []byte) error {
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		path,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"},
	)
	return err
}

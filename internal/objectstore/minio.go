package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"box-bot/internal/models/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store хранилище документов пользователей
type Store interface {
	Upload(ctx context.Context, bucket, filename string, data []byte, contentType string) error
	// Fetch возвращает содержимое объекта и его content-type
	Fetch(ctx context.Context, bucket, filename string) ([]byte, string, error)
}

type minioStore struct {
	client *minio.Client
}

// NewMinio подключается к minio из конфигурации
func NewMinio(cfg *config.Config) (Store, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &minioStore{client: client}, nil
}

func (s *minioStore) Upload(ctx context.Context, bucket, filename string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, filename,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, filename, err)
	}
	return nil
}

func (s *minioStore) Fetch(ctx context.Context, bucket, filename string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s/%s: %w", bucket, filename, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat %s/%s: %w", bucket, filename, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read %s/%s: %w", bucket, filename, err)
	}
	return data, stat.ContentType, nil
}

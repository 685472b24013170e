// Package storage 对象存储：导出文件的上传与预签名下载链接
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/config"
)

// SharedObject 上传后的分享信息
type SharedObject struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
}

// ObjectStore 导出分享所需的最小对象存储能力
type ObjectStore interface {
	Share(ctx context.Context, key string, data []byte, contentType string) (*SharedObject, error)
}

// MinIOStore 基于 MinIO / S3 的 ObjectStore
type MinIOStore struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
	logger *zap.Logger
}

// NewMinIOStore 创建客户端并确保 bucket 存在
func NewMinIOStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查 bucket 失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 bucket 失败: %w", err)
		}
		logger.Info("已创建 bucket", zap.String("bucket", cfg.Bucket))
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket, urlTTL: ttl, logger: logger}, nil
}

// Share 上传文件并返回预签名下载链接
func (s *MinIOStore) Share(ctx context.Context, key string, data []byte, contentType string) (*SharedObject, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("上传对象失败: %w", err)
	}

	fileName := path.Base(key)
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlTTL, reqParams)
	if err != nil {
		return nil, fmt.Errorf("生成预签名链接失败: %w", err)
	}

	s.logger.Info("导出文件已分享",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return &SharedObject{
		Key:       key,
		URL:       presigned.String(),
		ExpiresAt: time.Now().Add(s.urlTTL),
		FileName:  fileName,
	}, nil
}

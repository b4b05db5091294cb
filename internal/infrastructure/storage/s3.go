package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xiebiao/bookshelf/internal/application/ingest"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// S3Store 对象存储客户端(AWS S3实现)
// 设计说明：
// 1. 实现application/ingest.ObjectStore端口
// 2. 上传带有界超时,超时按上传失败处理,走同样的补偿路径
// 3. 公开URL纯计算(bucket+key),私有URL每次重新签名
type S3Store struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	uploadTimeout time.Duration
}

// NewS3Store 创建对象存储客户端
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Storage.Bucket,
		uploadTimeout: cfg.Storage.UploadTimeout,
	}, nil
}

var _ ingest.ObjectStore = (*S3Store)(nil)

// Put 上传字节流到artifact.Key下
// 按key幂等(同key重复上传即覆盖);超时视为上传失败
func (s *S3Store) Put(ctx context.Context, artifact *ingest.Artifact) (ingest.StoredObject, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(artifact.Key),
		Body:        bytes.NewReader(artifact.Body),
		ContentType: aws.String(artifact.ContentType),
	})
	if err != nil {
		return ingest.StoredObject{}, apperrors.WrapCode(apperrors.ErrCodeUploadFailed, err,
			fmt.Sprintf("上传对象失败: %s", artifact.Key))
	}

	return ingest.StoredObject{
		Key:        artifact.Key,
		Visibility: artifact.Visibility,
	}, nil
}

// Delete 按key删除对象
// 尽力而为:失败只记日志不致命,留下的孤儿对象不破坏摄取状态
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Printf("删除对象失败(孤儿对象): key=%s err=%v", key, err)
		return apperrors.WrapCode(apperrors.ErrCodeCompensation, err,
			fmt.Sprintf("删除对象失败: %s", key))
	}
	return nil
}

// ResolveURL 将key解析为可访问的URL
// 公开对象: 由bucket与key纯计算,无网络调用,URL稳定
// 私有对象: 每次调用签发新的限时URL,自调用时刻起ttl内有效
func (s *S3Store) ResolveURL(ctx context.Context, key string, visibility ingest.Visibility, ttl time.Duration) (string, error) {
	if visibility == ingest.VisibilityPublic {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperrors.Wrap(err, fmt.Sprintf("签名URL失败: %s", key))
	}

	return presigned.URL, nil
}

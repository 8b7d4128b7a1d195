package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/utils"
)

type Service struct {
	Client           *minio.Client
	Region           string
	Bucket           string
	StorageType      string
	FileKeyGenerator *utils.FileKeyGenerator
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	var minioClient *minio.Client
	var err error

	switch cfg.StorageType {
	case "minio":
		minioClient, err = utils.CreateMinIOClient(cfg)
	case "s3":
		minioClient, err = utils.CreateS3Client(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	ss := &Service{
		Client:           minioClient,
		Region:           cfg.BucketRegion,
		Bucket:           cfg.BucketName,
		StorageType:      cfg.StorageType,
		FileKeyGenerator: utils.NewFileKeyGenerator(utils.StrategyDateBased, "generated"),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ss.EnsureBucketExists(ctx); err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	logging.Logger.Info("Storage service initialized",
		"type", cfg.StorageType,
		"bucket", cfg.BucketName,
		"region", cfg.BucketRegion,
	)
	return ss, nil
}

func (ss *Service) EnsureBucketExists(ctx context.Context) error {
	exists, err := ss.Client.BucketExists(ctx, ss.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", ss.Bucket, err)
	}
	if exists {
		return nil
	}
	err = ss.Client.MakeBucket(ctx, ss.Bucket, minio.MakeBucketOptions{Region: ss.Region})
	if err != nil {
		if ss.StorageType == "s3" {
			logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
				"bucket", ss.Bucket, "error", err)
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", ss.Bucket, err)
	}
	logging.Logger.Info("Bucket created", "bucket", ss.Bucket)
	return nil
}

// PutDocument stores a rendered document under a date based key derived
// from its id and returns the key.
func (ss *Service) PutDocument(ctx context.Context, id, filename, contentType string, data []byte) (string, error) {
	key := ss.FileKeyGenerator.GenerateFileKey(filename, id)
	_, err := ss.Client.PutObject(ctx, ss.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"document-id": id,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// GeneratePresignedGetDownload signs a GET that downloads the object under
// the given filename.
func (ss *Service) GeneratePresignedGetDownload(ctx context.Context, fileKey, filename string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("invalid presign ttl %s", ttl)
	}
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	presignedURL, err := ss.Client.PresignedGetObject(ctx, ss.Bucket, fileKey, ttl, params)
	if err != nil {
		logging.Logger.Error("fail GeneratePresignedGetDownload", "key", fileKey, "error", err)
		return "", err
	}
	return presignedURL.String(), nil
}

func (ss *Service) FileExists(ctx context.Context, fileKey string) (bool, error) {
	_, err := ss.Client.StatObject(ctx, ss.Bucket, fileKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

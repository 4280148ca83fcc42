// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/mintnprint/backend/internal/config"
)

// StorageService persists generated images somewhere publicly fetchable.
// With AWS credentials it writes to S3 (optionally fronted by CloudFront);
// without them it writes into the local public directory and serves the
// file off the app's own base URL.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Local-disk mode for development
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// SaveImage writes the image bytes under the given name and returns the
// public URL it will be served from.
func (s *StorageService) SaveImage(name string, data []byte, contentType string) (string, error) {
	if s.s3Client != nil {
		return s.saveToS3(name, data, contentType)
	}
	return s.saveToLocal(name, data)
}

func (s *StorageService) saveToS3(key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.publicURL(key), nil
}

func (s *StorageService) saveToLocal(name string, data []byte) (string, error) {
	dir := s.config.Frontend.PublicDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create public dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	logrus.WithField("path", path).Debug("image saved to local storage")
	return fmt.Sprintf("%s/static/%s", s.config.Frontend.BaseURL, name), nil
}

func (s *StorageService) publicURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

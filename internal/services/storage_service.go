// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/mywinecellar/cellar-api/internal/config"
)

// StorageService mirrors wine images to S3. Without AWS credentials it is
// disabled and every call is a no-op.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
}

func NewStorageService(cfg config.AWSConfig) (*StorageService, error) {
	if cfg.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{}, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(cfg.S3PathStyle),
	}
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.S3Bucket), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, bucket string) *StorageService {
	return &StorageService{s3Client: client, bucket: bucket}
}

func (s *StorageService) Enabled() bool {
	return s != nil && s.s3Client != nil
}

// PutWineImage uploads image under a key derived from the wine id, replacing
// any previous object, and returns the key.
func (s *StorageService) PutWineImage(ctx context.Context, wineID uint, image []byte, contentType string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	key := WineImageKey(wineID, contentType)
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(image),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(image))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

func WineImageKey(wineID uint, contentType string) string {
	return fmt.Sprintf("wines/%d/image%s", wineID, imageExtension(contentType))
}

// DetectImageType sniffs the MIME type from the leading bytes.
func DetectImageType(image []byte) string {
	contentType := http.DetectContentType(image)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return contentType
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".bin"
	}
}

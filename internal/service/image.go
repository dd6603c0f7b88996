package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// MaxImageSize is the largest decoded recipe image accepted.
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded recipe image ready for storage.
type Image struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the content type.
func (i *Image) Ext() string {
	return imageExtensions[i.ContentType]
}

// ImageStore persists recipe images and returns an opaque reference to them.
type ImageStore interface {
	Save(ctx context.Context, img *Image) (string, error)
	Delete(ctx context.Context, ref string) error
}

// DecodeImage parses a base64 data URI ("data:image/png;base64,....") or a
// bare base64 payload. The content type is sniffed from the bytes, never
// trusted from the header.
func DecodeImage(raw string) (*Image, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, fmt.Errorf("image must be base64 encoded")
		}
		payload = payload[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, fmt.Errorf("unsupported image type %s", contentType)
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// S3ImageStore stores recipe images in an S3 bucket under recipe-images/.
type S3ImageStore struct {
	s3  *config.S3Config
	log *logger.Logger
}

func NewS3ImageStore(s3Config *config.S3Config, log *logger.Logger) *S3ImageStore {
	return &S3ImageStore{s3: s3Config, log: log.With("service", "S3ImageStore")}
}

// Save uploads the image and returns its public URL.
func (s *S3ImageStore) Save(ctx context.Context, img *Image) (string, error) {
	key := fmt.Sprintf("recipe-images/%s.%s", uuid.NewString(), img.Ext())
	_, err := s.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.s3.PublicURL(key)
	s.log.Debug("uploaded recipe image", "url", url, "bytes", len(img.Data))
	return url, nil
}

// Delete removes an image previously returned by Save.
func (s *S3ImageStore) Delete(ctx context.Context, ref string) error {
	prefix := s.s3.PublicURL("")
	if !strings.HasPrefix(ref, prefix) {
		return fmt.Errorf("image %q does not belong to bucket %s", ref, s.s3.BucketName)
	}
	_, err := s.s3.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3.BucketName),
		Key:    aws.String(strings.TrimPrefix(ref, prefix)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

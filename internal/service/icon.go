package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/igocard/backend/config"
	"github.com/igocard/backend/internal/types"
)

// MaxIconBytes caps avatar uploads at 5MB.
const MaxIconBytes = 5 << 20

var (
	ErrIconTooLarge = errors.New("icon image must be 5MB or smaller")
	ErrIconBadType  = errors.New("icon image must be a JPEG or PNG file")
)

// ValidateIcon enforces the size and type limits on an avatar before it
// goes anywhere near the blob store. The type check sniffs the actual
// bytes rather than trusting the declared content type.
func ValidateIcon(icon *types.IconUpload) error {
	if len(icon.Data) > MaxIconBytes {
		return ErrIconTooLarge
	}
	detected := http.DetectContentType(icon.Data)
	if detected != "image/jpeg" && detected != "image/png" {
		return ErrIconBadType
	}
	icon.ContentType = detected
	return nil
}

// S3IconStore stores avatar images in S3 under a per-owner prefix with a
// timestamp disambiguator, so a replaced icon never overwrites the object
// an old page might still reference.
type S3IconStore struct {
	s3Config *config.S3Config
}

var _ IconStore = (*S3IconStore)(nil)

// NewS3IconStore creates a new S3IconStore instance
func NewS3IconStore(s3Config *config.S3Config) *S3IconStore {
	return &S3IconStore{s3Config: s3Config}
}

// Upload pushes the image to S3 and returns its public URL.
func (s *S3IconStore) Upload(ctx context.Context, ownerID uuid.UUID, icon *types.IconUpload) (string, error) {
	key := fmt.Sprintf("icons/%s/%d_%s", ownerID, time.Now().UnixNano(), sanitizeFilename(icon.Filename))

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(icon.Data),
		ContentType: aws.String(icon.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[S3IconStore] uploaded icon to %s", publicURL)
	return publicURL, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "icon"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// Package media uploads images and video to S3 and hands back public URLs.
// Without S3 settings, uploads degrade to inline data: URLs.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

const DefaultPrefix = "bookora"

var ErrInvalidDataURL = errors.New("invalid data URL")

// Config holds object storage settings
type Config struct {
	Bucket    string
	Region    string
	PublicURL string // e.g. a CloudFront prefix; defaults to the bucket's S3 URL
	KeyPrefix string // folder inside the bucket
}

// Storage uploads blobs
type Storage struct {
	cfg      Config
	uploader s3manageriface.UploaderAPI
	logger   *slog.Logger
	now      func() time.Time
}

// NewStorage creates S3-backed storage when bucket and region are set,
// inline-only storage otherwise
func NewStorage(cfg Config, logger *slog.Logger) (*Storage, error) {
	s := &Storage{cfg: cfg, logger: logger, now: time.Now}
	if cfg.Bucket == "" || cfg.Region == "" {
		logger.Warn("object storage not configured, media uploads will be inlined as data URLs")
		return s, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	s.uploader = s3manager.NewUploader(sess)
	if s.cfg.PublicURL == "" {
		s.cfg.PublicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
	}
	return s, nil
}

// NewStorageWithUploader is used by tests to inject a fake uploader
func NewStorageWithUploader(cfg Config, uploader s3manageriface.UploaderAPI, logger *slog.Logger) *Storage {
	return &Storage{cfg: cfg, uploader: uploader, logger: logger, now: time.Now}
}

// IsConfigured reports whether uploads go to S3
func (s *Storage) IsConfigured() bool {
	return s.uploader != nil
}

// Upload stores data under name and returns its public URL. Without S3 the
// data is returned inline as a data: URL. An S3 failure is returned as is.
func (s *Storage) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = detectContentType(name, data)
	}
	if !s.IsConfigured() {
		return DataURL(contentType, data), nil
	}

	key := strings.TrimPrefix(filepath.ToSlash(filepath.Join(s.cfg.KeyPrefix, name)), "/")
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		ACL:         aws.String("public-read"),
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	s.logger.Info("media uploaded", "key", key, "bytes", len(data))
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key, nil
}

// UploadOrInline uploads and falls back to an inline data URL on failure
func (s *Storage) UploadOrInline(ctx context.Context, name, contentType string, data []byte) string {
	url, err := s.Upload(ctx, name, contentType, data)
	if err != nil {
		s.logger.Warn("media upload failed, inlining", "name", name, "error", err)
		if contentType == "" {
			contentType = detectContentType(name, data)
		}
		return DataURL(contentType, data)
	}
	return url
}

// UploadDataURL decodes dataURL and uploads it under a generated name.
// Values that are not data URLs (already hosted) are returned unchanged.
func (s *Storage) UploadDataURL(ctx context.Context, dataURL, prefix string) string {
	if !IsDataURL(dataURL) || !s.IsConfigured() {
		return dataURL
	}
	contentType, data, err := ParseDataURL(dataURL)
	if err != nil {
		s.logger.Warn("skipping malformed data URL", "error", err)
		return dataURL
	}

	name := s.GenerateFilename("upload"+extensionFor(contentType), prefix)
	url, err := s.Upload(ctx, name, contentType, data)
	if err != nil {
		s.logger.Warn("media upload failed, keeping data URL", "error", err)
		return dataURL
	}
	return url
}

// GenerateFilename returns <prefix>_<unix-millis>.<ext>, taking the extension
// from originalName and defaulting to jpg
func (s *Storage) GenerateFilename(originalName, prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%d.%s", prefix, s.now().UnixMilli(), ext)
}

// IsDataURL reports whether s is a base64 data: URL
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DataURL renders data inline
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a data:<mime>;base64,<payload> URL
func ParseDataURL(s string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasPrefix(s, "data:") {
		return "", nil, ErrInvalidDataURL
	}
	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return contentType, data, nil
}

func detectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

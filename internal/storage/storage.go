package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const basePath = "reports/"

// Publisher uploads finished reports and returns the object key.
type Publisher interface {
	Publish(ctx context.Context, data []byte, filename string) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Publisher struct {
	bucket string
	client putObjectAPI
}

// NewS3Publisher loads the default AWS config chain for region.
func NewS3Publisher(ctx context.Context, bucket, region string) (Publisher, error) {
	if bucket == "" {
		return nil, errors.New("bucket is empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &s3Publisher{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (s *s3Publisher) Publish(ctx context.Context, data []byte, filename string) (string, error) {
	if filename == "" {
		return "", errors.New("filename is empty")
	}

	key := ObjectKey(filename)
	mimeType := ContentType(filename, data)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}

func ObjectKey(filename string) string {
	return basePath + filepath.Base(filename)
}

// ContentType resolves by extension first, then by sniffing data.
func ContentType(filename string, data []byte) string {
	if filepath.Ext(filename) == ".xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType
}

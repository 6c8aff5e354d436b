package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cvforge/internal/config"
)

// R2Storage keeps artifacts in a Cloudflare R2 (S3-compatible) bucket.
// Downloads redirect to a short-lived presigned GET URL.
type R2Storage struct {
	client *s3.Client
	bucket string
}

func NewR2(cfg config.R2Config) *R2Storage {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Storage{client: client, bucket: cfg.BucketName}
}

func (s *R2Storage) Save(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}
	// Object keys double as the recorded path.
	return key, nil
}

func (s *R2Storage) ServeFile(w http.ResponseWriter, r *http.Request, fullPath, filename string) error {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(r.Context(), &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(fullPath),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return err
	}
	http.Redirect(w, r, req.URL, http.StatusTemporaryRedirect)
	return nil
}

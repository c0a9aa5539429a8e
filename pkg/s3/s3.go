package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type ItfS3 interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Prefix          string
}

type s3Client struct {
	uploader   *s3manager.Uploader
	bucketName string
	prefix     string
}

func New(cfg Config) (ItfS3, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	return &s3Client{
		uploader:   s3manager.NewUploader(sess),
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
	}, nil
}

// UploadFile copies the file at localPath into the bucket and returns its location.
func (s *s3Client) UploadFile(ctx context.Context, localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer func(src *os.File) {
		if err := src.Close(); err != nil {
			fmt.Println("Failed to close file")
		}
	}(src)

	uploadOutput, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ObjectKey(s.prefix, filepath.Base(localPath), time.Now())),
		Body:   src,
	})
	if err != nil {
		return "", err
	}

	return uploadOutput.Location, nil
}

// ObjectKey places files under <prefix>/<yyyy-mm-dd>/<name>.
func ObjectKey(prefix, fileName string, t time.Time) string {
	return path.Join(prefix, t.Format("2006-01-02"), fileName)
}

func newSession(cfg Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

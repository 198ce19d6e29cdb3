package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"marketcache/internal/status"
)

// S3Config holds the settings for the archived-dataset bucket.
type S3Config struct {
	Bucket string
	Region string
}

// S3 fetches archived dataset records from an S3 bucket. It serves the same
// fetch contract as Redis, keyed by the request's s3_key.
type S3 struct {
	bucket string
	svc    *s3.S3
	log    *logrus.Entry
}

// NewS3 builds an S3 reader over a shared session.
func NewS3(conf *S3Config, log *logrus.Entry) (*S3, error) {
	if conf == nil || conf.Bucket == "" {
		return nil, errors.New("s3 configuration is nil or empty")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(conf.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return &S3{bucket: conf.Bucket, svc: s3.New(sess), log: log}, nil
}

// Fetch retrieves the object cached under key. A missing object yields
// NotRun with no error, mirroring the Redis fetch contract.
func (s *S3) Fetch(ctx context.Context, label, key string) (Record, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			s.log.WithFields(logrus.Fields{"label": label, "key": key}).
				Debug("s3 key not found")
			return Record{Status: status.NotRun}, nil
		}
		return Record{Status: status.Err}, fmt.Errorf("failed to get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Record{Status: status.Err}, fmt.Errorf("failed to read s3 object %s: %w", key, err)
	}
	if len(data) == 0 {
		return Record{Status: status.MissingData}, nil
	}
	return Record{Status: status.Success, Data: data}, nil
}

package export

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	"github.com/runledger/runledger/pkg/errors"
)

// ParseS3URL splits an s3://bucket/prefix URL into bucket and key
// prefix. The prefix may be empty.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(raw, scheme) {
		return "", "", errors.NewConfigError("s3", "destination must start with s3://", nil)
	}

	rest := strings.TrimPrefix(raw, scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.NewConfigError("s3", "destination has no bucket", nil)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Uploader pushes exported files to an S3 bucket.
type Uploader struct {
	uploader *s3manager.Uploader
	log      *zerolog.Logger
}

// NewUploader builds an uploader from ambient AWS configuration
// (environment, shared config, instance role).
func NewUploader(log *zerolog.Logger) (*Uploader, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.NewConfigError("s3", "AWS session", err)
	}
	return &Uploader{uploader: s3manager.NewUploader(sess), log: log}, nil
}

// Upload sends each local file to s3://bucket/prefix/<basename> and
// returns the object keys written.
func (u *Uploader) Upload(ctx context.Context, files []string, bucket, prefix string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := filepath.Base(file)
		if prefix != "" {
			key = path.Join(prefix, key)
		}

		in, err := os.Open(file)
		if err != nil {
			return keys, errors.WrapIO("open", file, err)
		}

		_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   in,
		})
		in.Close()
		if err != nil {
			return keys, errors.NewExportError("s3", key, 0, err)
		}

		u.log.Info().Str("bucket", bucket).Str("key", key).Msg("Uploaded file")
		keys = append(keys, key)
	}
	return keys, nil
}

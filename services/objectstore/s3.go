package objectstore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fileobj"
)

// S3Store issues presigned PUT URLs against an S3 bucket and verifies landed
// objects with HEAD requests.
type S3Store struct {
	svc    *s3.S3
	bucket string
}

var _ fileobj.ObjectStore = (*S3Store)(nil)

func NewS3Store(conf *core.Config) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(conf.ObjectStore.Region)})
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return &S3Store{svc: s3.New(sess), bucket: conf.ObjectStore.Bucket}, nil
}

func (st *S3Store) PresignPut(key string, expire time.Duration) (string, error) {
	req, _ := st.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expire)
	if err != nil {
		return "", errors.Wrapf(err, "presigning put for %s", key)
	}
	return url, nil
}

func (st *S3Store) Stat(ctx context.Context, key string) (fileobj.ObjectInfo, error) {
	out, err := st.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
			return fileobj.ObjectInfo{}, fileobj.ErrObjectMissing
		}
		return fileobj.ObjectInfo{}, errors.Wrapf(err, "checking %s", key)
	}
	var info fileobj.ObjectInfo
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	return info, nil
}

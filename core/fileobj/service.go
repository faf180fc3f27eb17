package fileobj

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/upload"
)

var (
	// errors
	ErrNotFound         = errors.New("file object not found")
	ErrAlreadyConfirmed = errors.New("file object already confirmed")
	ErrInvalidState     = errors.New("file object is in an invalid state")
	ErrObjectMissing    = errors.New("object not found in store")
)

type (
	Repository interface {
		CreateFileObject(ctx context.Context, fo FileObject) (FileObject, error)
		GetFileObjectByID(ctx context.Context, id string) (FileObject, error)
		// CommitFileObject flips a pending record to committed, recording the
		// actual size and content type. It fails with ErrAlreadyConfirmed when
		// the record is no longer pending.
		CommitFileObject(ctx context.Context, id string, size int64, contentType string, committedAt time.Time) (FileObject, error)
		// FilterCommitted returns committed records for a business record,
		// oldest first.
		FilterCommitted(ctx context.Context, refType, refID, bucketPurpose string) ([]FileObject, error)
	}

	// ObjectInfo describes a stored object.
	ObjectInfo struct {
		Size        int64
		ContentType string
	}

	// ObjectStore is the S3-compatible store holding the bytes.
	ObjectStore interface {
		// PresignPut mints a time-limited pre-authorized PUT URL for key.
		PresignPut(key string, expire time.Duration) (string, error)
		// Stat fails with ErrObjectMissing when no object exists under key.
		Stat(ctx context.Context, key string) (ObjectInfo, error)
	}

	Service struct {
		repo  Repository
		store ObjectStore
		conf  *core.Config
	}
)

func NewService(repo Repository, store ObjectStore, conf *core.Config) *Service {
	return &Service{repo: repo, store: store, conf: conf}
}

// CreateSession re-validates the candidate against the bucket policy, mints a
// fresh file object id with a presigned URL, and persists the pending record
// before the URL is handed out. Ids are never reused; an abandoned session
// simply leaves a pending record for garbage collection.
func (svc *Service) CreateSession(ctx context.Context, bucketPurpose, filename, refType, refID string, expectedSize int64) (NewSession, error) {
	filename = core.CleanString(filename)

	pol, err := upload.PolicyFor(bucketPurpose)
	if err != nil {
		return NewSession{}, core.NewValidationError(err, core.FieldError{Field: "bucketPurpose", Error: err.Error()})
	}
	// the create payload carries no content type; MIME is enforced at confirm
	if err := pol.Validate(filename, expectedSize, ""); err != nil {
		return NewSession{}, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("%s/%s/%s/%s", bucketPurpose, refType, refID, id)
	expire := time.Duration(svc.conf.Upload.ExpireSeconds) * time.Second

	url, err := svc.store.PresignPut(key, expire)
	if err != nil {
		return NewSession{}, pkgerrors.Wrap(err, "presigning put")
	}

	fo, err := svc.repo.CreateFileObject(ctx, FileObject{
		ID:               id,
		BucketPurpose:    bucketPurpose,
		BusinessRefType:  refType,
		BusinessRefID:    refID,
		OriginalFilename: filename,
		ObjectKey:        key,
		Size:             expectedSize,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return NewSession{}, pkgerrors.Wrap(err, "persisting pending file object")
	}
	return NewSession{FileObject: fo, PresignedURL: url, ExpireSeconds: svc.conf.Upload.ExpireSeconds}, nil
}

// Confirm finalizes a pending record once its bytes have landed. The stored
// object is the source of truth: a missing object or a size mismatch leaves
// the record pending and fails with ErrInvalidState.
func (svc *Service) Confirm(ctx context.Context, id string, size int64, contentType string) (FileObject, error) {
	fo, err := svc.repo.GetFileObjectByID(ctx, id)
	if err != nil {
		return FileObject{}, err
	}
	if fo.Status == StatusCommitted {
		return FileObject{}, ErrAlreadyConfirmed
	}

	pol, err := upload.PolicyFor(fo.BucketPurpose)
	if err != nil {
		return FileObject{}, pkgerrors.Wrapf(err, "policy for %s", fo.BucketPurpose)
	}
	if err := pol.Validate(fo.OriginalFilename, size, contentType); err != nil {
		return FileObject{}, err
	}

	info, err := svc.store.Stat(ctx, fo.ObjectKey)
	if err != nil {
		if errors.Is(err, ErrObjectMissing) {
			return FileObject{}, pkgerrors.Wrap(ErrInvalidState, "no bytes landed for this file object")
		}
		return FileObject{}, pkgerrors.Wrap(err, "checking stored object")
	}
	if info.Size != size {
		return FileObject{}, pkgerrors.Wrapf(ErrInvalidState, "stored size %d does not match reported size %d", info.Size, size)
	}

	return svc.repo.CommitFileObject(ctx, id, size, contentType, time.Now().UTC())
}

// ListCommitted returns the committed files attached to a business record.
func (svc *Service) ListCommitted(ctx context.Context, refType, refID, bucketPurpose string) ([]FileObject, error) {
	return svc.repo.FilterCommitted(ctx, refType, refID, bucketPurpose)
}

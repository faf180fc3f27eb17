package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/fileobj"
)

type fileObjectRepository struct {
	db *sqlx.DB
}

func NewFileObjectRepository(db *sqlx.DB) fileobj.Repository {
	return &fileObjectRepository{db: db}
}

func (repo *fileObjectRepository) CreateFileObject(ctx context.Context, fo fileobj.FileObject) (fileobj.FileObject, error) {
	const q = `
INSERT INTO file_object (id, bucket_purpose, business_ref_type, business_ref_id, original_filename,
                         object_key, size_bytes, mime_type, status, created_at, committed_at)
VALUES (:id, :bucket_purpose, :business_ref_type, :business_ref_id, :original_filename,
        :object_key, :size_bytes, :mime_type, :status, :created_at, :committed_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, fo); err != nil {
		return fileobj.FileObject{}, errors.Wrap(err, "inserting file object")
	}
	return fo, nil
}

func (repo *fileObjectRepository) GetFileObjectByID(ctx context.Context, id string) (fileobj.FileObject, error) {
	var fo fileobj.FileObject
	err := repo.db.GetContext(ctx, &fo, `SELECT * FROM file_object WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fileobj.FileObject{}, fileobj.ErrNotFound
		}
		return fileobj.FileObject{}, errors.Wrap(err, "getting file object")
	}
	return fo, nil
}

func (repo *fileObjectRepository) CommitFileObject(ctx context.Context, id string, size int64, contentType string, committedAt time.Time) (fileobj.FileObject, error) {
	const q = `
UPDATE file_object
SET size_bytes = $2, mime_type = $3, status = $4, committed_at = $5
WHERE id = $1 AND status = $6
RETURNING *`
	var fo fileobj.FileObject
	err := repo.db.GetContext(ctx, &fo, q, id, size, contentType, fileobj.StatusCommitted, committedAt, fileobj.StatusPending)
	if err == nil {
		return fo, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fileobj.FileObject{}, errors.Wrap(err, "committing file object")
	}

	// no pending row matched; tell a missing record apart from a raced commit
	if _, err := repo.GetFileObjectByID(ctx, id); err != nil {
		return fileobj.FileObject{}, err
	}
	return fileobj.FileObject{}, fileobj.ErrAlreadyConfirmed
}

func (repo *fileObjectRepository) FilterCommitted(ctx context.Context, refType, refID, bucketPurpose string) ([]fileobj.FileObject, error) {
	const q = `
SELECT * FROM file_object
WHERE business_ref_type = $1 AND business_ref_id = $2 AND bucket_purpose = $3 AND status = $4
ORDER BY created_at, id`
	fos := make([]fileobj.FileObject, 0)
	if err := repo.db.SelectContext(ctx, &fos, q, refType, refID, bucketPurpose, fileobj.StatusCommitted); err != nil {
		return nil, errors.Wrap(err, "filtering committed file objects")
	}
	return fos, nil
}

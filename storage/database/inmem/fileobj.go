package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/fileobj"
)

type fileObjectRepository struct {
	db *fileObjectTable
}

func NewFileObjectRepository(db *DB) fileobj.Repository {
	return &fileObjectRepository{db: db.fileObject}
}

func (repo *fileObjectRepository) CreateFileObject(_ context.Context, fo fileobj.FileObject) (fileobj.FileObject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[fo.ID] = &fo
	repo.db.order[fo.ID] = repo.db.seq
	repo.db.seq++
	return fo, nil
}

func (repo *fileObjectRepository) GetFileObjectByID(_ context.Context, id string) (fileobj.FileObject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fo, ok := repo.db.table[id]
	if !ok {
		return fileobj.FileObject{}, fileobj.ErrNotFound
	}
	return *fo, nil
}

func (repo *fileObjectRepository) CommitFileObject(_ context.Context, id string, size int64, contentType string, committedAt time.Time) (fileobj.FileObject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	fo, ok := repo.db.table[id]
	if !ok {
		return fileobj.FileObject{}, fileobj.ErrNotFound
	}
	if fo.Status != fileobj.StatusPending {
		return fileobj.FileObject{}, fileobj.ErrAlreadyConfirmed
	}
	fo.Size = size
	fo.ContentType = contentType
	fo.Status = fileobj.StatusCommitted
	fo.CommittedAt = &committedAt
	return *fo, nil
}

func (repo *fileObjectRepository) FilterCommitted(_ context.Context, refType, refID, bucketPurpose string) ([]fileobj.FileObject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fos := make([]fileobj.FileObject, 0)
	for _, fo := range repo.db.table {
		if fo.Status != fileobj.StatusCommitted {
			continue
		}
		if fo.BusinessRefType != refType || fo.BusinessRefID != refID || fo.BucketPurpose != bucketPurpose {
			continue
		}
		fos = append(fos, *fo)
	}
	sort.Slice(fos, func(i, j int) bool {
		if fos[i].CreatedAt.Equal(fos[j].CreatedAt) {
			return repo.db.order[fos[i].ID] < repo.db.order[fos[j].ID]
		}
		return fos[i].CreatedAt.Before(fos[j].CreatedAt)
	})
	return fos, nil
}

package fileobj

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

type fakeRepo struct {
	table map[string]FileObject
}

func newFakeRepo() *fakeRepo { return &fakeRepo{table: make(map[string]FileObject)} }

func (r *fakeRepo) CreateFileObject(_ context.Context, fo FileObject) (FileObject, error) {
	r.table[fo.ID] = fo
	return fo, nil
}

func (r *fakeRepo) GetFileObjectByID(_ context.Context, id string) (FileObject, error) {
	fo, ok := r.table[id]
	if !ok {
		return FileObject{}, ErrNotFound
	}
	return fo, nil
}

func (r *fakeRepo) CommitFileObject(_ context.Context, id string, size int64, contentType string, committedAt time.Time) (FileObject, error) {
	fo, ok := r.table[id]
	if !ok {
		return FileObject{}, ErrNotFound
	}
	if fo.Status != StatusPending {
		return FileObject{}, ErrAlreadyConfirmed
	}
	fo.Size = size
	fo.ContentType = contentType
	fo.Status = StatusCommitted
	fo.CommittedAt = &committedAt
	r.table[id] = fo
	return fo, nil
}

func (r *fakeRepo) FilterCommitted(_ context.Context, refType, refID, bucketPurpose string) ([]FileObject, error) {
	fos := make([]FileObject, 0)
	for _, fo := range r.table {
		if fo.Status == StatusCommitted && fo.BusinessRefType == refType && fo.BusinessRefID == refID && fo.BucketPurpose == bucketPurpose {
			fos = append(fos, fo)
		}
	}
	return fos, nil
}

// fakeStore stats whatever the test primed it with.
type fakeStore struct {
	objects map[string]ObjectInfo
}

func newFakeStore() *fakeStore { return &fakeStore{objects: make(map[string]ObjectInfo)} }

func (st *fakeStore) PresignPut(key string, _ time.Duration) (string, error) {
	return "https://store.test/" + key + "?signature=sig", nil
}

func (st *fakeStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	info, ok := st.objects[key]
	if !ok {
		return ObjectInfo{}, ErrObjectMissing
	}
	return info, nil
}

func newTestService() (*Service, *fakeRepo, *fakeStore) {
	repo := newFakeRepo()
	store := newFakeStore()
	conf := &core.Config{Upload: core.UploadConfig{ExpireSeconds: 900}}
	return NewService(repo, store, conf), repo, store
}

func Test_Service_CreateSession(t *testing.T) {
	svc, repo, _ := newTestService()

	sess, err := svc.CreateSession(context.Background(), "leave-attachment", " note.pdf ", "leave", "42", 1024)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.FileObject.ID)
	assert.Equal(t, 900, sess.ExpireSeconds)
	assert.Contains(t, sess.PresignedURL, sess.FileObject.ID)

	// the pending record exists before the URL is handed out
	fo, err := repo.GetFileObjectByID(context.Background(), sess.FileObject.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fo.Status)
	assert.Equal(t, "note.pdf", fo.OriginalFilename)
	assert.True(t, strings.HasPrefix(fo.ObjectKey, "leave-attachment/leave/42/"), fo.ObjectKey)

	// ids are never reused across sessions for the same file
	sess2, err := svc.CreateSession(context.Background(), "leave-attachment", "note.pdf", "leave", "42", 1024)
	require.NoError(t, err)
	assert.NotEqual(t, sess.FileObject.ID, sess2.FileObject.ID)

	t.Run("policy rejections", func(t *testing.T) {
		_, err := svc.CreateSession(context.Background(), "nope", "note.pdf", "leave", "42", 10)
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))

		_, err = svc.CreateSession(context.Background(), "leave-attachment", "note.pdf", "leave", "42", 11<<20)
		assert.True(t, errors.As(err, &vErr))

		_, err = svc.CreateSession(context.Background(), "leave-attachment", "script.exe", "leave", "42", 10)
		assert.True(t, errors.As(err, &vErr))
	})
}

func Test_Service_Confirm(t *testing.T) {
	svc, _, store := newTestService()

	sess, err := svc.CreateSession(context.Background(), "leave-attachment", "note.pdf", "leave", "42", 11)
	require.NoError(t, err)
	id := sess.FileObject.ID

	t.Run("no bytes landed", func(t *testing.T) {
		_, err := svc.Confirm(context.Background(), id, 11, "application/pdf")
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	store.objects[sess.FileObject.ObjectKey] = ObjectInfo{Size: 11, ContentType: "application/pdf"}

	t.Run("size mismatch", func(t *testing.T) {
		_, err := svc.Confirm(context.Background(), id, 10, "application/pdf")
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("denied content type", func(t *testing.T) {
		_, err := svc.Confirm(context.Background(), id, 11, "text/html")
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	fo, err := svc.Confirm(context.Background(), id, 11, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, fo.Status)
	assert.Equal(t, "application/pdf", fo.ContentType)
	require.NotNil(t, fo.CommittedAt)

	t.Run("already confirmed", func(t *testing.T) {
		_, err := svc.Confirm(context.Background(), id, 11, "application/pdf")
		assert.Equal(t, ErrAlreadyConfirmed, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Confirm(context.Background(), "nope", 11, "application/pdf")
		assert.Equal(t, ErrNotFound, err)
	})
}

func Test_Service_ListCommitted(t *testing.T) {
	svc, _, store := newTestService()

	sess, err := svc.CreateSession(context.Background(), "leave-attachment", "note.pdf", "leave", "42", 3)
	require.NoError(t, err)
	store.objects[sess.FileObject.ObjectKey] = ObjectInfo{Size: 3, ContentType: "application/pdf"}
	_, err = svc.Confirm(context.Background(), sess.FileObject.ID, 3, "application/pdf")
	require.NoError(t, err)

	// a pending session for the same record stays invisible
	_, err = svc.CreateSession(context.Background(), "leave-attachment", "draft.pdf", "leave", "42", 3)
	require.NoError(t, err)

	fos, err := svc.ListCommitted(context.Background(), "leave", "42", "leave-attachment")
	require.NoError(t, err)
	require.Len(t, fos, 1)
	assert.Equal(t, sess.FileObject.ID, fos[0].ID)

	fos, err = svc.ListCommitted(context.Background(), "leave", "77", "leave-attachment")
	require.NoError(t, err)
	assert.Empty(t, fos)
}

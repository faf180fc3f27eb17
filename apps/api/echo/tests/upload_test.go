package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/fileobj"
)

type sessionResp struct {
	FileObjectID  string `json:"fileObjectId"`
	PresignedURL  string `json:"presignedUrl"`
	ExpireSeconds int    `json:"expireSeconds"`
}

func createSession(t *testing.T, env *testEnv, filename string, size int64) sessionResp {
	t.Helper()
	body := marchallObj(t, map[string]interface{}{
		"bucketPurpose":    "leave-attachment",
		"originalFilename": filename,
		"businessRefType":  "leave",
		"businessRefId":    "42",
		"expectedSize":     size,
	})
	req, rec := newRequest(http.MethodPost, "/v1/upload/create", body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess
}

func putBytes(t *testing.T, url, data, contentType string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader([]byte(data)))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func confirm(t *testing.T, env *testEnv, id string, size int64, contentType string) *http.Response {
	t.Helper()
	body := marchallObj(t, map[string]interface{}{
		"fileObjectId": id,
		"sizeBytes":    size,
		"mimeType":     contentType,
	})
	res, err := http.Post(env.srv.URL+"/v1/upload/confirm", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decodeErr(t *testing.T, res *http.Response) httpErr {
	t.Helper()
	var e httpErr
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	return e
}

func Test_uploadApi_create(t *testing.T) {
	env := setup(t)

	sess := createSession(t, env, "note.pdf", 1024)
	assert.NotEmpty(t, sess.FileObjectID)
	assert.Contains(t, sess.PresignedURL, "/objects/")
	assert.Equal(t, 900, sess.ExpireSeconds)

	// a pending record exists before the URL is ever used
	fo, err := env.foRepo.GetFileObjectByID(context.Background(), sess.FileObjectID)
	require.NoError(t, err)
	assert.Equal(t, fileobj.StatusPending, fo.Status)

	// ids are never reused
	sess2 := createSession(t, env, "note.pdf", 1024)
	assert.NotEqual(t, sess.FileObjectID, sess2.FileObjectID)
}

func Test_uploadApi_createRejections(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     marchallObj(t, map[string]interface{}{"bucketPurpose": "leave-attachment"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "filename with path separator",
			body: marchallObj(t, map[string]interface{}{
				"bucketPurpose": "leave-attachment", "originalFilename": "../../etc/passwd",
				"businessRefType": "leave", "businessRefId": "42", "expectedSize": 10,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown bucket purpose",
			body: marchallObj(t, map[string]interface{}{
				"bucketPurpose": "nope", "originalFilename": "note.pdf",
				"businessRefType": "leave", "businessRefId": "42", "expectedSize": 10,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "oversized file",
			body: marchallObj(t, map[string]interface{}{
				"bucketPurpose": "leave-attachment", "originalFilename": "note.pdf",
				"businessRefType": "leave", "businessRefId": "42", "expectedSize": 11 << 20,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "denied extension",
			body: marchallObj(t, map[string]interface{}{
				"bucketPurpose": "leave-attachment", "originalFilename": "script.exe",
				"businessRefType": "leave", "businessRefId": "42", "expectedSize": 10,
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/upload/create", tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode}, rec)

			var e httpErr
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func Test_uploadApi_confirm(t *testing.T) {
	env := setup(t)

	sess := createSession(t, env, "note.pdf", int64(len("note bytes")))
	putBytes(t, sess.PresignedURL, "note bytes", "application/pdf")

	res := confirm(t, env, sess.FileObjectID, int64(len("note bytes")), "application/pdf")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var fo fileobj.FileObject
	require.NoError(t, json.NewDecoder(res.Body).Decode(&fo))
	assert.Equal(t, sess.FileObjectID, fo.ID)
	assert.Equal(t, fileobj.StatusCommitted, fo.Status)
	assert.Equal(t, "application/pdf", fo.ContentType)
	require.NotNil(t, fo.CommittedAt)

	// confirming twice is rejected with a stable code
	res = confirm(t, env, sess.FileObjectID, int64(len("note bytes")), "application/pdf")
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "already_confirmed", decodeErr(t, res).Code)
}

func Test_uploadApi_confirmRejections(t *testing.T) {
	env := setup(t)

	t.Run("unknown file object", func(t *testing.T) {
		res := confirm(t, env, "77777777-7777-7777-7777-777777777777", 10, "application/pdf")
		require.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "not_found", decodeErr(t, res).Code)
	})

	t.Run("no bytes landed", func(t *testing.T) {
		sess := createSession(t, env, "note.pdf", 10)
		res := confirm(t, env, sess.FileObjectID, 10, "application/pdf")
		require.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, "invalid_state", decodeErr(t, res).Code)
	})

	t.Run("size mismatch", func(t *testing.T) {
		sess := createSession(t, env, "note.pdf", 10)
		putBytes(t, sess.PresignedURL, "0123456789", "application/pdf")
		res := confirm(t, env, sess.FileObjectID, 9, "application/pdf")
		require.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, "invalid_state", decodeErr(t, res).Code)

		// the record stays pending; a later truthful confirm still works
		res = confirm(t, env, sess.FileObjectID, 10, "application/pdf")
		require.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("denied content type", func(t *testing.T) {
		sess := createSession(t, env, "note.pdf", 5)
		putBytes(t, sess.PresignedURL, "bytes", "text/html")
		res := confirm(t, env, sess.FileObjectID, 5, "text/html")
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func Test_uploadApi_listFiles(t *testing.T) {
	env := setup(t)

	listURL := env.srv.URL + "/v1/business/leave/42/files?bucketPurpose=leave-attachment"

	list := func(t *testing.T) []map[string]interface{} {
		res, err := http.Get(listURL)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		var recs []map[string]interface{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&recs))
		return recs
	}

	assert.Empty(t, list(t))

	// commit two files; pending ones must not show up
	var ids []string
	for i, name := range []string{"a.pdf", "b.pdf"} {
		data := fmt.Sprintf("content-%d", i)
		sess := createSession(t, env, name, int64(len(data)))
		putBytes(t, sess.PresignedURL, data, "application/pdf")
		res := confirm(t, env, sess.FileObjectID, int64(len(data)), "application/pdf")
		require.Equal(t, http.StatusOK, res.StatusCode)
		ids = append(ids, sess.FileObjectID)
		time.Sleep(2 * time.Millisecond) // distinct created_at for ordering
	}
	createSession(t, env, "never-uploaded.pdf", 10)

	recs := list(t)
	require.Len(t, recs, 2)
	for i, rec := range recs {
		assert.Equal(t, ids[i], rec["fileObjectId"])
		assert.NotContains(t, rec, "objectKey") // storage keys stay private
	}

	// other refs see nothing
	res, err := http.Get(env.srv.URL + "/v1/business/leave/77/files?bucketPurpose=leave-attachment")
	require.NoError(t, err)
	defer res.Body.Close()
	var other []map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&other))
	assert.Empty(t, other)
}

package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

func newClient(baseURL string) *Client {
	conf := &core.Config{}
	conf.Upload.BaseURL = baseURL
	conf.Upload.RequestTimeout = 5 * time.Second
	return NewClient(conf)
}

func TestClientCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/upload/create", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req CreateSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "leave-attachment", req.BucketPurpose)
		assert.Equal(t, "doctor-note.pdf", req.OriginalFilename)
		assert.Equal(t, "leave", req.BusinessRefType)
		assert.Equal(t, "42", req.BusinessRefID)
		assert.Equal(t, int64(123), req.ExpectedSize)

		_ = json.NewEncoder(w).Encode(Session{
			FileObjectID:  "fo-1",
			PresignedURL:  "http://store.local/put",
			ExpireSeconds: 300,
		})
	}))
	defer srv.Close()

	sess, err := newClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{
		BucketPurpose:    "leave-attachment",
		OriginalFilename: "doctor-note.pdf",
		BusinessRefType:  "leave",
		BusinessRefID:    "42",
		ExpectedSize:     123,
	})

	require.NoError(t, err)
	assert.Equal(t, Session{FileObjectID: "fo-1", PresignedURL: "http://store.local/put", ExpireSeconds: 300}, sess)
}

func TestClientCreateSessionRejectionSurfacesServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json error shape", `{"error":"file exceeds the maximum allowed size"}`, "file exceeds the maximum allowed size"},
		{"plain text body is surfaced verbatim", "quota exhausted for this bucket", "quota exhausted for this bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{})

			var scErr *SessionCreateError
			require.True(t, errors.As(err, &scErr))
			assert.Equal(t, tt.want, scErr.Message)
		})
	}
}

func TestClientConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/upload/confirm", r.URL.Path)

		var req ConfirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fo-1", req.FileObjectID)

		_ = json.NewEncoder(w).Encode(FileRecord{ID: req.FileObjectID, Size: req.SizeBytes, ContentType: req.ContentType})
	}))
	defer srv.Close()

	rec, err := newClient(srv.URL).Confirm(context.Background(), ConfirmRequest{FileObjectID: "fo-1", SizeBytes: 9, ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "fo-1", rec.ID)
	assert.Equal(t, int64(9), rec.Size)
}

func TestClientConfirmErrorClassification(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantCode        string
		wantReconcilable bool
	}{
		{"coded already confirmed", http.StatusConflict, `{"error":"file object already confirmed","code":"already_confirmed"}`, CodeAlreadyConfirmed, true},
		{"coded invalid state", http.StatusConflict, `{"error":"file object is in an invalid state","code":"invalid_state"}`, CodeInvalidState, true},
		{"legacy message-only backend", http.StatusConflict, `{"error":"upload already confirmed"}`, "", true},
		{"not found", http.StatusNotFound, `{"error":"no such file object"}`, CodeNotFound, false},
		{"other failure", http.StatusInternalServerError, `{"error":"metadata store unavailable"}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Confirm(context.Background(), ConfirmRequest{FileObjectID: "fo-1"})

			var confErr *ConfirmError
			require.True(t, errors.As(err, &confErr))
			assert.Equal(t, tt.wantCode, confErr.Code)
			assert.Equal(t, tt.wantReconcilable, confErr.Reconcilable())
		})
	}
}

func TestClientListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/business/leave/42/files", r.URL.Path)
		require.Equal(t, "leave-attachment", r.URL.Query().Get("bucketPurpose"))
		_ = json.NewEncoder(w).Encode([]FileRecord{{ID: "fo-1", OriginalFilename: "a.pdf"}})
	}))
	defer srv.Close()

	recs, err := newClient(srv.URL).ListFiles(context.Background(), BusinessRef{Type: "leave", ID: "42"}, "leave-attachment")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "fo-1", recs[0].ID)
}

func TestClientCancelBusiness(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/leave/42/cancel", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		called = true
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	require.NoError(t, client.CancelBusiness(context.Background(), BusinessRef{Type: "leave", ID: "42"}))
	assert.True(t, called)

	err := client.CancelBusiness(context.Background(), BusinessRef{Type: "invoice", ID: "9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cancel endpoint")
}

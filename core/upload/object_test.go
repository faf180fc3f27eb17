package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPutterPut(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewMemFile("a.pdf", []byte("hello object store"), "application/pdf")
	putter := NewObjectPutter(5 * time.Second)

	var reports []int
	err := putter.Put(context.Background(), f, srv.URL, func(pct int) { reports = append(reports, pct) })

	require.NoError(t, err)
	assert.Equal(t, "hello object store", string(gotBody))
	assert.Equal(t, "application/pdf", gotContentType)

	require.NotEmpty(t, reports)
	assert.Equal(t, 100, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1], "progress must never go backwards")
	}
}

func TestObjectPutterNon2xxIsTransferError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	putter := NewObjectPutter(5 * time.Second)
	err := putter.Put(context.Background(), NewMemFile("a.pdf", []byte("x"), ""), srv.URL, nil)

	var terr *TransferError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusForbidden, terr.StatusCode)
}

func TestObjectPutterNetworkFailureIsTransferError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening any more

	putter := NewObjectPutter(time.Second)
	err := putter.Put(context.Background(), NewMemFile("a.pdf", []byte("x"), ""), srv.URL, nil)

	var terr *TransferError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
	assert.Error(t, terr.Err)
}

func TestObjectPutterAbort(t *testing.T) {
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	putter := NewObjectPutter(30 * time.Second)
	err := putter.Put(ctx, NewMemFile("a.pdf", []byte("x"), ""), srv.URL, nil)

	assert.True(t, errors.Is(err, context.Canceled))
}

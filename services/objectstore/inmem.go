package objectstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fileobj"
)

// InmemStore keeps objects in memory and serves presigned PUTs over its own
// HTTP handler, signing URLs with the app secret. It backs dev mode and
// tests so that clients exercise the same presigned-write path as against S3.
type InmemStore struct {
	mu      sync.RWMutex
	objects map[string]memObject

	baseURL string
	secret  []byte
	now     func() time.Time
}

type memObject struct {
	data        []byte
	contentType string
}

func NewInmemStore(conf *core.Config) *InmemStore {
	return &InmemStore{
		objects: make(map[string]memObject),
		baseURL: strings.TrimRight(conf.ObjectStore.PublicBaseURL, "/"),
		secret:  []byte(conf.SecretKey),
		now:     time.Now,
	}
}

// SetBaseURL rebinds the public URL the store signs for; tests point it at an
// httptest server.
func (st *InmemStore) SetBaseURL(baseURL string) {
	st.baseURL = strings.TrimRight(baseURL, "/")
}

func (st *InmemStore) PresignPut(key string, expire time.Duration) (string, error) {
	expires := st.now().Add(expire).Unix()
	return fmt.Sprintf("%s/%s?expires=%d&signature=%s",
		st.baseURL, escapeKey(key), expires, st.sign(key, expires)), nil
}

var _ fileobj.ObjectStore = (*InmemStore)(nil)

func (st *InmemStore) Stat(_ context.Context, key string) (fileobj.ObjectInfo, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	obj, ok := st.objects[key]
	if !ok {
		return fileobj.ObjectInfo{}, fileobj.ErrObjectMissing
	}
	return fileobj.ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

// Handler accepts the presigned PUTs this store minted. Mount it stripped of
// its path prefix, e.g. under /objects/.
func (st *InmemStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		key, err := unescapeKey(strings.TrimPrefix(r.URL.Path, "/"))
		if err != nil {
			http.Error(w, "bad object key", http.StatusBadRequest)
			return
		}

		expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
		if err != nil {
			http.Error(w, "missing or malformed expiry", http.StatusForbidden)
			return
		}
		sig := r.URL.Query().Get("signature")
		if !hmac.Equal([]byte(sig), []byte(st.sign(key, expires))) {
			http.Error(w, "signature mismatch", http.StatusForbidden)
			return
		}
		if st.now().Unix() > expires {
			http.Error(w, "url expired", http.StatusForbidden)
			return
		}

		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}
		st.mu.Lock()
		st.objects[key] = memObject{data: data, contentType: r.Header.Get("Content-Type")}
		st.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (st *InmemStore) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, st.secret)
	_, _ = fmt.Fprintf(mac, "%s\n%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func unescapeKey(path string) (string, error) {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		unescaped, err := url.PathUnescape(seg)
		if err != nil {
			return "", err
		}
		segs[i] = unescaped
	}
	return strings.Join(segs, "/"), nil
}

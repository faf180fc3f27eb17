package upload

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ObjectPutter streams file bytes to a presigned URL.
type ObjectPutter struct {
	client *http.Client
}

func NewObjectPutter(timeout time.Duration) *ObjectPutter {
	return &ObjectPutter{client: &http.Client{Timeout: timeout}}
}

// Put transfers f to presignedURL via a raw HTTP PUT. onProgress, when
// non-nil, receives a monotonically non-decreasing 0–100 percentage.
// The transfer aborts when ctx is cancelled, in which case the context error
// is returned; all other failures come back as *TransferError.
func (p *ObjectPutter) Put(ctx context.Context, f File, presignedURL string, onProgress func(pct int)) error {
	body, err := f.Open()
	if err != nil {
		return &TransferError{Err: err}
	}
	defer func() { _ = body.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, &progressReader{
		r:      body,
		total:  f.Size(),
		report: onProgress,
	})
	if err != nil {
		return &TransferError{Err: err}
	}
	req.ContentLength = f.Size()
	if ct := f.ContentType(); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	res, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransferError{Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))

	// no JSON body is consumed; any 2xx is success
	if !is2xx(res.StatusCode) {
		return &TransferError{StatusCode: res.StatusCode}
	}
	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

// progressReader reports upload progress as its source drains. Reported
// percentages only ever grow.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if pr.report != nil && pr.total > 0 {
		pct := int(pr.read * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		if pct > pr.last {
			pr.last = pct
			pr.report(pct)
		}
	}
	return n, err
}

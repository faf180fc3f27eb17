package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// cancel endpoints per business record type; extended as new record types
// grow attachments.
var cancelPaths = map[string]string{
	"leave": "/v1/leave/%s/cancel",
}

// Client is the HTTP implementation of Backend.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Backend = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Upload.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Upload.RequestTimeout},
	}
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error) {
	res, err := c.postJSON(ctx, "/v1/upload/create", req)
	if err != nil {
		return Session{}, errors.Wrap(err, "creating upload session")
	}
	defer func() { _ = res.Body.Close() }()

	if !is2xx(res.StatusCode) {
		return Session{}, &SessionCreateError{Message: readErrorMessage(res.Body)}
	}
	var sess Session
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return Session{}, errors.Wrap(err, "decoding upload session")
	}
	return sess, nil
}

func (c *Client) Confirm(ctx context.Context, req ConfirmRequest) (FileRecord, error) {
	res, err := c.postJSON(ctx, "/v1/upload/confirm", req)
	if err != nil {
		return FileRecord{}, errors.Wrap(err, "confirming upload")
	}
	defer func() { _ = res.Body.Close() }()

	if !is2xx(res.StatusCode) {
		apiErr := decodeAPIError(res.Body)
		if res.StatusCode == http.StatusNotFound && apiErr.Code == "" {
			apiErr.Code = CodeNotFound
		}
		return FileRecord{}, &ConfirmError{Code: apiErr.Code, Message: apiErr.Error, StatusCode: res.StatusCode}
	}
	var rec FileRecord
	if err := json.NewDecoder(res.Body).Decode(&rec); err != nil {
		return FileRecord{}, errors.Wrap(err, "decoding committed record")
	}
	return rec, nil
}

func (c *Client) ListFiles(ctx context.Context, ref BusinessRef, bucketPurpose string) ([]FileRecord, error) {
	path := fmt.Sprintf("/v1/business/%s/%s/files?bucketPurpose=%s",
		url.PathEscape(ref.Type), url.PathEscape(ref.ID), url.QueryEscape(bucketPurpose))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building list request")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "listing committed files")
	}
	defer func() { _ = res.Body.Close() }()

	if !is2xx(res.StatusCode) {
		return nil, errors.Errorf("listing committed files: %s", readErrorMessage(res.Body))
	}
	var recs []FileRecord
	if err := json.NewDecoder(res.Body).Decode(&recs); err != nil {
		return nil, errors.Wrap(err, "decoding committed files")
	}
	return recs, nil
}

func (c *Client) CancelBusiness(ctx context.Context, ref BusinessRef) error {
	pathTmpl, ok := cancelPaths[ref.Type]
	if !ok {
		return errors.Errorf("no cancel endpoint for business record type %q", ref.Type)
	}
	res, err := c.postJSON(ctx, fmt.Sprintf(pathTmpl, url.PathEscape(ref.ID)), nil)
	if err != nil {
		return errors.Wrapf(err, "cancelling %s", ref)
	}
	defer func() { _ = res.Body.Close() }()

	if !is2xx(res.StatusCode) {
		return errors.Errorf("cancelling %s: %s", ref, readErrorMessage(res.Body))
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var buff bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buff).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buff)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// decodeAPIError parses the backend's JSON error shape, falling back to the
// raw body for backends that reply with plain text.
func decodeAPIError(r io.Reader) apiError {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil {
		return apiError{Error: err.Error()}
	}
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr
	}
	return apiError{Error: strings.TrimSpace(string(raw))}
}

func readErrorMessage(r io.Reader) string {
	return decodeAPIError(r).Error
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}

package upload

import (
	"errors"
	"strings"

	"github.com/trezcool/darasa/core"
)

// Bucket purposes known to both sides of the pipeline. The backend owns the
// authoritative policy; the client copy below exists to fail bad files before
// any network call.
const (
	PurposeLeaveAttachment = "leave-attachment"
	PurposeGeneral         = "general"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrExtensionDenied = errors.New("file extension is not allowed")
	ErrMimeDenied      = errors.New("file content type is not allowed")
	ErrUnknownPurpose  = errors.New("unknown bucket purpose")
)

// Policy restricts what may be uploaded under a bucket purpose.
// Zero MaxFileSize means unlimited; empty allow lists mean unrestricted.
type Policy struct {
	BucketPurpose     string
	MaxFileSize       int64
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

var policies = map[string]Policy{
	PurposeLeaveAttachment: {
		BucketPurpose:     PurposeLeaveAttachment,
		MaxFileSize:       10 << 20,
		AllowedExtensions: []string{"pdf", "jpg", "jpeg", "png"},
		AllowedMimeTypes:  []string{"application/pdf", "image/jpeg", "image/png"},
	},
	PurposeGeneral: {
		BucketPurpose: PurposeGeneral,
	},
}

func PolicyFor(purpose string) (Policy, error) {
	pol, ok := policies[purpose]
	if !ok {
		return Policy{}, ErrUnknownPurpose
	}
	return pol, nil
}

// Validate checks a candidate file's metadata against the policy. It is
// pure: same inputs, same verdict, and it never touches the network. The
// client calls it before any session is created; the backend calls it again
// on create and confirm.
func (p Policy) Validate(name string, size int64, contentType string) error {
	if p.MaxFileSize > 0 && size > p.MaxFileSize {
		return core.NewValidationError(ErrFileTooLarge, core.FieldError{Field: name, Error: ErrFileTooLarge.Error()})
	}
	if len(p.AllowedExtensions) > 0 && !containsFold(p.AllowedExtensions, extension(name)) {
		return core.NewValidationError(ErrExtensionDenied, core.FieldError{Field: name, Error: ErrExtensionDenied.Error()})
	}
	// An empty reported content type bypasses the allow list; the backend has
	// the final say on content.
	if len(p.AllowedMimeTypes) > 0 && contentType != "" && !containsFold(p.AllowedMimeTypes, baseContentType(contentType)) {
		return core.NewValidationError(ErrMimeDenied, core.FieldError{Field: name, Error: ErrMimeDenied.Error()})
	}
	return nil
}

// ValidateFile checks an opened file handle against the policy.
func (p Policy) ValidateFile(f File) error {
	return p.Validate(f.Name(), f.Size(), f.ContentType())
}

// extension returns the substring after the last dot, or "" when there is none.
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// baseContentType strips MIME parameters, e.g. "text/plain; charset=utf-8".
func baseContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

package upload

import "context"

// CreateSessionRequest asks the backend to mint a presigned URL plus a
// pending metadata record.
type CreateSessionRequest struct {
	BucketPurpose    string `json:"bucketPurpose"`
	OriginalFilename string `json:"originalFilename"`
	BusinessRefType  string `json:"businessRefType"`
	BusinessRefID    string `json:"businessRefId"`
	ExpectedSize     int64  `json:"expectedSize"`
}

// ConfirmRequest finalizes the metadata record once the bytes have landed.
type ConfirmRequest struct {
	FileObjectID string `json:"fileObjectId"`
	SizeBytes    int64  `json:"sizeBytes"`
	ContentType  string `json:"mimeType"`
}

// Backend is the metadata service the saga drives. Every call allocates or
// mutates server-side state; none of them are idempotent from the client's
// point of view except ListFiles.
type Backend interface {
	// CreateSession allocates a fresh file object id and presigned URL.
	// A retry must call it again; ids are never reused.
	CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error)

	// Confirm finalizes a successfully uploaded file object. Rejections come
	// back as *ConfirmError.
	Confirm(ctx context.Context, req ConfirmRequest) (FileRecord, error)

	// ListFiles returns the committed records for a business record, used for
	// reconciliation and post-batch refresh.
	ListFiles(ctx context.Context, ref BusinessRef, bucketPurpose string) ([]FileRecord, error)

	// CancelBusiness best-effort cancels the parent business record.
	CancelBusiness(ctx context.Context, ref BusinessRef) error
}

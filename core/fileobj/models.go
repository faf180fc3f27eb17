package fileobj

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
)

// FileObject is the metadata record for one stored object. It is created
// pending alongside the presigned URL and committed once the client confirms
// the bytes landed. Pending records whose upload never completes are swept by
// garbage collection.
type FileObject struct {
	ID               string     `db:"id" json:"fileObjectId"`
	BucketPurpose    string     `db:"bucket_purpose" json:"bucketPurpose"`
	BusinessRefType  string     `db:"business_ref_type" json:"businessRefType"`
	BusinessRefID    string     `db:"business_ref_id" json:"businessRefId"`
	OriginalFilename string     `db:"original_filename" json:"originalFilename"`
	ObjectKey        string     `db:"object_key" json:"-"`
	Size             int64      `db:"size_bytes" json:"sizeBytes"`
	ContentType      string     `db:"mime_type" json:"mimeType"`
	Status           Status     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`   // UTC
	CommittedAt      *time.Time `db:"committed_at" json:"committedAt,omitempty"` // UTC
}

// NewSession pairs a freshly minted pending FileObject with its presigned
// write grant.
type NewSession struct {
	FileObject    FileObject
	PresignedURL  string
	ExpireSeconds int
}

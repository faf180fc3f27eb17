package upload

// Status is the lifecycle state of a batch item.
// An item moves Pending → Creating → Uploading → Confirming → Done;
// Error is reachable from Creating, Uploading and Confirming and is terminal.
type Status int

const (
	StatusPending Status = iota
	StatusCreating
	StatusUploading
	StatusConfirming
	StatusDone
	StatusError
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusCreating:   "creating",
	StatusUploading:  "uploading",
	StatusConfirming: "confirming",
	StatusDone:       "done",
	StatusError:      "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// BusinessRef identifies the domain record owning a batch of attachments,
// e.g. {leave, 42} for a leave request.
type BusinessRef struct {
	Type string
	ID   string
}

func (r BusinessRef) String() string {
	return r.Type + "/" + r.ID
}

// Session is the short-lived grant minted by the backend for a single object
// write. It is consumed immediately and never retained past the item's
// terminal state.
type Session struct {
	FileObjectID  string `json:"fileObjectId"`
	PresignedURL  string `json:"presignedUrl"`
	ExpireSeconds int    `json:"expireSeconds"`
}

// FileRecord is a committed file as listed by the backend.
type FileRecord struct {
	ID               string `json:"fileObjectId"`
	BucketPurpose    string `json:"bucketPurpose"`
	OriginalFilename string `json:"originalFilename"`
	Size             int64  `json:"sizeBytes"`
	ContentType      string `json:"mimeType"`
}

// Item tracks one candidate file through the pipeline.
type Item struct {
	File         File
	Status       Status
	Progress     int // 0..100
	ErrorMessage string
	FileObjectID string

	err error
}

// Err returns the classified failure for a failed item, nil otherwise.
func (it *Item) Err() error { return it.err }

// setFileObjectID assigns the id minted by a successful session create.
// It is assigned at most once for the lifetime of the item.
func (it *Item) setFileObjectID(id string) {
	if it.FileObjectID == "" {
		it.FileObjectID = id
	}
}

// BatchResult is the terminal tally of a batch, computed only once every item
// has reached a terminal status.
type BatchResult struct {
	Succeeded int
	Failed    int
}

func (r BatchResult) Total() int { return r.Succeeded + r.Failed }

// Batch is an ordered list of items bound to one business record and one
// storage policy.
type Batch struct {
	Ref    BusinessRef
	Policy Policy
	Items  []*Item

	progress *ProgressStore
}

func NewBatch(ref BusinessRef, pol Policy, files ...File) *Batch {
	items := make([]*Item, 0, len(files))
	for _, f := range files {
		items = append(items, &Item{File: f, Status: StatusPending})
	}
	return &Batch{
		Ref:      ref,
		Policy:   pol,
		Items:    items,
		progress: newProgressStore(len(items)),
	}
}

// Progress exposes the batch's observable per-item state for UI subscribers.
func (b *Batch) Progress() *ProgressStore { return b.progress }

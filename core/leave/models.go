package leave

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Kinds of leave a student may request.
const (
	KindSick     = "sick"
	KindPersonal = "personal"
	KindOther    = "other"
)

// LeaveRequest is the parent business record attachments hang off. It is
// created before its attachments are uploaded and cancelled when they fail to
// land in full.
type LeaveRequest struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	Kind      string    `db:"kind" json:"kind"`
	Reason    string    `db:"reason" json:"reason"`
	StartsAt  time.Time `db:"starts_at" json:"startsAt"` // UTC
	EndsAt    time.Time `db:"ends_at" json:"endsAt"`     // UTC
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"` // UTC
}

// NewLeaveRequest is the payload for creating a LeaveRequest.
type NewLeaveRequest struct {
	StudentID string    `json:"studentId" validate:"required"`
	Kind      string    `json:"kind" validate:"required,oneof=sick personal other"`
	Reason    string    `json:"reason" validate:"required"`
	StartsAt  time.Time `json:"startsAt" validate:"required"`
	EndsAt    time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

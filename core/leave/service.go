package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound       = errors.New("leave request not found")
	ErrNotCancellable = errors.New("this leave request can no longer be cancelled")
)

type (
	Repository interface {
		CreateLeave(ctx context.Context, lr LeaveRequest) (LeaveRequest, error)
		GetLeaveByID(ctx context.Context, id string) (LeaveRequest, error)
		UpdateLeaveStatus(ctx context.Context, id string, status Status, updatedAt time.Time) (LeaveRequest, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nl NewLeaveRequest) (LeaveRequest, error) {
	now := time.Now().UTC()
	lr := LeaveRequest{
		ID:        uuid.New().String(),
		StudentID: core.CleanString(nl.StudentID),
		Kind:      core.CleanString(nl.Kind, true /* lower */),
		Reason:    core.CleanString(nl.Reason),
		StartsAt:  nl.StartsAt.UTC(),
		EndsAt:    nl.EndsAt.UTC(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateLeave(ctx, lr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (LeaveRequest, error) {
	return svc.repo.GetLeaveByID(ctx, id)
}

// Cancel compensates a submission whose attachments failed to land in full.
// Cancelling an already-cancelled request is a no-op so that a best-effort
// retry of the compensating call stays safe; approved or rejected requests
// can no longer be cancelled.
func (svc *Service) Cancel(ctx context.Context, id string) (LeaveRequest, error) {
	lr, err := svc.repo.GetLeaveByID(ctx, id)
	if err != nil {
		return LeaveRequest{}, err
	}
	switch lr.Status {
	case StatusCancelled:
		return lr, nil
	case StatusPending:
		return svc.repo.UpdateLeaveStatus(ctx, id, StatusCancelled, time.Now().UTC())
	default:
		return LeaveRequest{}, ErrNotCancellable
	}
}

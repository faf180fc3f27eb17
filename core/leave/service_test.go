package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	table map[string]LeaveRequest
}

func newFakeRepo() *fakeRepo { return &fakeRepo{table: make(map[string]LeaveRequest)} }

func (r *fakeRepo) CreateLeave(_ context.Context, lr LeaveRequest) (LeaveRequest, error) {
	r.table[lr.ID] = lr
	return lr, nil
}

func (r *fakeRepo) GetLeaveByID(_ context.Context, id string) (LeaveRequest, error) {
	lr, ok := r.table[id]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	return lr, nil
}

func (r *fakeRepo) UpdateLeaveStatus(_ context.Context, id string, status Status, updatedAt time.Time) (LeaveRequest, error) {
	lr, ok := r.table[id]
	if !ok {
		return LeaveRequest{}, ErrNotFound
	}
	lr.Status = status
	lr.UpdatedAt = updatedAt
	r.table[id] = lr
	return lr, nil
}

func newLeave() NewLeaveRequest {
	now := time.Now()
	return NewLeaveRequest{
		StudentID: "std-001",
		Kind:      "Sick", // cleaned and lowered
		Reason:    "  flu  ",
		StartsAt:  now.Add(24 * time.Hour),
		EndsAt:    now.Add(48 * time.Hour),
	}
}

func Test_Service_Create(t *testing.T) {
	svc := NewService(newFakeRepo())

	lr, err := svc.Create(context.Background(), newLeave())
	require.NoError(t, err)
	assert.NotEmpty(t, lr.ID)
	assert.Equal(t, StatusPending, lr.Status)
	assert.Equal(t, KindSick, lr.Kind)
	assert.Equal(t, "flu", lr.Reason)
	assert.Equal(t, time.UTC, lr.CreatedAt.Location())
}

func Test_Service_Cancel(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	lr, err := svc.Create(context.Background(), newLeave())
	require.NoError(t, err)

	got, err := svc.Cancel(context.Background(), lr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// cancelling an already-cancelled request stays a no-op
	got, err = svc.Cancel(context.Background(), lr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), "nope")
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("decided requests are final", func(t *testing.T) {
		for _, status := range []Status{StatusApproved, StatusRejected} {
			lr, err := svc.Create(context.Background(), newLeave())
			require.NoError(t, err)
			_, err = repo.UpdateLeaveStatus(context.Background(), lr.ID, status, time.Now().UTC())
			require.NoError(t, err)

			_, err = svc.Cancel(context.Background(), lr.ID)
			assert.Equal(t, ErrNotCancellable, err)
		}
	})
}

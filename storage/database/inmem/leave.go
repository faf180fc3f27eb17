package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/leave"
)

type leaveRepository struct {
	db *leaveTable
}

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db.leave}
}

func (repo *leaveRepository) CreateLeave(_ context.Context, lr leave.LeaveRequest) (leave.LeaveRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[lr.ID] = &lr
	return lr, nil
}

func (repo *leaveRepository) GetLeaveByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lr, ok := repo.db.table[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	return *lr, nil
}

func (repo *leaveRepository) UpdateLeaveStatus(_ context.Context, id string, status leave.Status, updatedAt time.Time) (leave.LeaveRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lr, ok := repo.db.table[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	lr.Status = status
	lr.UpdatedAt = updatedAt
	return *lr, nil
}

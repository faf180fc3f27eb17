package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/leave"
)

type leaveRepository struct {
	db *sqlx.DB
}

func NewLeaveRepository(db *sqlx.DB) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) CreateLeave(ctx context.Context, lr leave.LeaveRequest) (leave.LeaveRequest, error) {
	const q = `
INSERT INTO leave_request (id, student_id, kind, reason, starts_at, ends_at, status, created_at, updated_at)
VALUES (:id, :student_id, :kind, :reason, :starts_at, :ends_at, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, lr); err != nil {
		return leave.LeaveRequest{}, errors.Wrap(err, "inserting leave request")
	}
	return lr, nil
}

func (repo *leaveRepository) GetLeaveByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := repo.db.GetContext(ctx, &lr, `SELECT * FROM leave_request WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrNotFound
		}
		return leave.LeaveRequest{}, errors.Wrap(err, "getting leave request")
	}
	return lr, nil
}

func (repo *leaveRepository) UpdateLeaveStatus(ctx context.Context, id string, status leave.Status, updatedAt time.Time) (leave.LeaveRequest, error) {
	const q = `
UPDATE leave_request
SET status = $2, updated_at = $3
WHERE id = $1
RETURNING *`
	var lr leave.LeaveRequest
	err := repo.db.GetContext(ctx, &lr, q, id, status, updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrNotFound
		}
		return leave.LeaveRequest{}, errors.Wrap(err, "updating leave request status")
	}
	return lr, nil
}

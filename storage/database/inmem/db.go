package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/fileobj"
	"github.com/trezcool/darasa/core/leave"
)

type (
	DB struct {
		fileObject *fileObjectTable
		leave      *leaveTable
	}

	fileObjectTable struct {
		sync.RWMutex
		table map[string]*fileobj.FileObject
		// insertion order tiebreaker for equal CreatedAt
		order map[string]int
		seq   int
	}

	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.LeaveRequest
	}
)

func Open() (*DB, error) {
	db := &DB{
		fileObject: &fileObjectTable{table: make(map[string]*fileobj.FileObject), order: make(map[string]int)},
		leave:      &leaveTable{table: make(map[string]*leave.LeaveRequest)},
	}
	return db, nil
}

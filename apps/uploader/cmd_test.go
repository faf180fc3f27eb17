package main

import (
	"errors"
	"testing"

	"github.com/trezcool/darasa/core/upload"
)

func Test_summary(t *testing.T) {
	ref := upload.BusinessRef{Type: "leave", ID: "42"}

	tests := []struct {
		name  string
		total int
		res   upload.BatchResult
		err   error
		want  string
	}{
		{
			name:  "all succeeded",
			total: 3,
			res:   upload.BatchResult{Succeeded: 3},
			want:  "all 3 file(s) uploaded",
		},
		{
			name:  "partial failure rolled back",
			total: 3,
			res:   upload.BatchResult{Succeeded: 2, Failed: 1},
			want:  "1 of 3 file(s) failed - submission rolled back",
		},
		{
			name:  "rollback failed",
			total: 2,
			res:   upload.BatchResult{Succeeded: 1, Failed: 1},
			err:   &upload.CompensationError{Ref: ref, Err: errors.New("cancel endpoint down")},
			want:  "1 of 2 file(s) failed - rollback failed, manual cleanup required: cancel endpoint down",
		},
		{
			name:  "aborted",
			total: 4,
			res:   upload.BatchResult{Succeeded: 1},
			err:   errors.New("upload batch for leave/42 aborted: context canceled"),
			want:  "upload stopped after 1 of 4 file(s): upload batch for leave/42 aborted: context canceled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summary(tt.total, tt.res, tt.err); got != tt.want {
				t.Errorf("summary() = %q; want %q", got, tt.want)
			}
		})
	}
}

func Test_commandLine_runUsage(t *testing.T) {
	cli := &commandLine{}

	for _, args := range [][]string{
		{"uploader"},
		{"uploader", "bogus"},
		{"uploader", "send"}, // no -id, no files
	} {
		if err := cli.run(args); err != errHelp {
			t.Errorf("run(%v) = %v; want errHelp", args, err)
		}
	}
}

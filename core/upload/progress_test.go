package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStoreSnapshotAndEvents(t *testing.T) {
	store := newProgressStore(2)

	store.set(0, StatusCreating, 0, "")
	store.set(0, StatusUploading, 40, "")
	store.set(1, StatusError, 0, "file extension is not allowed")

	assert.Equal(t, ItemProgress{Status: StatusUploading, Percent: 40}, store.Item(0))
	assert.Equal(t, ItemProgress{Status: StatusError, Message: "file extension is not allowed"}, store.Item(1))

	snaps := store.Snapshot()
	require.Len(t, snaps, 2)
	assert.Equal(t, store.Item(0), snaps[0])
	assert.Equal(t, store.Item(1), snaps[1])

	// the event stream carries every transition in write order
	events := store.Events()
	require.Len(t, events, 3)
	first := <-events
	assert.Equal(t, ProgressEvent{Index: 0, Status: StatusCreating}, first)
}

func TestProgressStoreNeverBlocksWriters(t *testing.T) {
	store := newProgressStore(1)

	// no subscriber draining: writes beyond the buffer are dropped, not stuck
	for i := 0; i < cap(store.events)+50; i++ {
		store.set(0, StatusUploading, i%101, "")
	}
	assert.Equal(t, StatusUploading, store.Item(0).Status)
	assert.Len(t, store.events, cap(store.events))
}

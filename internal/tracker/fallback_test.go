package tracker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/remote"
	"github.com/christopherklint97/stempel/internal/store"
	"github.com/christopherklint97/stempel/internal/testutil"
)

// flakyRemote is a working store whose reads fail once down is set.
type flakyRemote struct {
	*store.DB
	down  atomic.Bool
	calls atomic.Int32
}

func (f *flakyRemote) ListTimeEntries(ctx context.Context) ([]domain.TimeEntry, error) {
	f.calls.Add(1)
	if f.down.Load() {
		return nil, fmt.Errorf("listing time entries: %w", remote.ErrUnavailable)
	}
	return f.DB.ListTimeEntries(ctx)
}

func (f *flakyRemote) ListTodos(ctx context.Context, status domain.TodoStatus) ([]domain.Todo, error) {
	f.calls.Add(1)
	return nil, fmt.Errorf("plain failure")
}

func TestFallbackStore_SticksToLocal(t *testing.T) {
	ctx := context.Background()
	rem := &flakyRemote{DB: testutil.NewTestStore(t)}
	local := testutil.NewTestStore(t)
	fs := NewFallbackStore(rem, local, nil)

	onRemote := testutil.NewTestEntry(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, fs.CreateTimeEntry(ctx, onRemote))
	assert.False(t, fs.Offline())

	entries, err := fs.ListTimeEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	rem.down.Store(true)
	entries, err = fs.ListTimeEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "local store is empty")
	assert.True(t, fs.Offline())

	rem.down.Store(false)
	before := rem.calls.Load()
	_, err = fs.ListTimeEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, rem.calls.Load(), "remote is not retried once offline")

	onLocal := testutil.NewTestEntry(time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, fs.CreateTimeEntry(ctx, onLocal))
	got, err := local.GetTimeEntry(ctx, onLocal.ID)
	require.NoError(t, err)
	assert.Equal(t, onLocal.ID, got.ID)
}

func TestFallbackStore_OtherErrorsPassThrough(t *testing.T) {
	rem := &flakyRemote{DB: testutil.NewTestStore(t)}
	fs := NewFallbackStore(rem, testutil.NewTestStore(t), nil)

	_, err := fs.ListTodos(context.Background(), "")
	assert.EqualError(t, err, "plain failure")
	assert.False(t, fs.Offline())
}

func TestFallbackStore_NilRemoteStartsLocal(t *testing.T) {
	fs := NewFallbackStore(nil, testutil.NewTestStore(t), nil)
	assert.True(t, fs.Offline())

	_, err := fs.ListProjects(context.Background(), domain.ProjectFilter{})
	require.NoError(t, err)
}

func TestTracker_ReportsOffline(t *testing.T) {
	local := testutil.NewTestStore(t)
	tr := New(NewFallbackStore(nil, local, nil), local, nil)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Offline)
}

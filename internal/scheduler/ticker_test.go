package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/christopherklint97/stempel/internal/config"
	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticSource struct {
	snap *tracker.Snapshot
	err  error
}

func (s staticSource) Snapshot(context.Context) (*tracker.Snapshot, error) {
	return s.snap, s.err
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(title, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func runningSnap(id string, elapsed, kw int64) *tracker.Snapshot {
	return &tracker.Snapshot{
		Running: &domain.TimeEntry{ID: id},
		Elapsed: elapsed,
		Summary: stats.Summary{ISOYear: 2026, ISOWeek: 10, KWSeconds: kw},
	}
}

func TestDue(t *testing.T) {
	sent := map[string]bool{}

	assert.Empty(t, Due(runningSnap("e1", 3600, 0), sent))
	assert.Empty(t, Due(&tracker.Snapshot{}, sent))

	due := Due(runningSnap("e1", stats.PauseThreshold, 0), sent)
	require.Len(t, due, 1)
	assert.Equal(t, "pause:e1", due[0].Key)
	assert.Contains(t, due[0].Message, "6h 0m")

	sent["pause:e1"] = true
	assert.Empty(t, Due(runningSnap("e1", stats.PauseThreshold+60, 0), sent))
	assert.Len(t, Due(runningSnap("e2", stats.PauseThreshold, 0), sent), 1)

	due = Due(runningSnap("e3", 600, stats.WeeklyTarget-600), sent)
	require.Len(t, due, 1)
	assert.Equal(t, "target:2026-W10", due[0].Key)
}

func TestCheck_SendsOnce(t *testing.T) {
	n := &recordingNotifier{}
	cfg := config.ReminderConfig{Notify: true}
	s := New(cfg, staticSource{snap: runningSnap("e1", stats.PauseThreshold, stats.WeeklyTarget)}, n, nil,
		WithPIDFile(filepath.Join(t.TempDir(), "pid")))

	s.Check(context.Background())
	s.Check(context.Background())
	assert.Len(t, n.messages, 2)
}

func TestCheck_SnapshotError(t *testing.T) {
	n := &recordingNotifier{}
	s := New(config.ReminderConfig{Notify: true}, staticSource{err: errors.New("boom")}, n, nil,
		WithPIDFile(filepath.Join(t.TempDir(), "pid")))

	s.Check(context.Background())
	assert.Empty(t, n.messages)
}

func TestRun_StopsOnCancel(t *testing.T) {
	pid := filepath.Join(t.TempDir(), "remind.pid")
	s := New(config.ReminderConfig{IntervalMinutes: 30}, staticSource{}, &recordingNotifier{}, nil, WithPIDFile(pid))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := readPIDFile(pid)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := os.Stat(pid)
	assert.True(t, os.IsNotExist(err))
}

func TestNextAlignedTick(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 17, 30, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC), nextAlignedTick(now, 30*time.Minute))
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), nextAlignedTick(now, time.Hour))
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), nextAlignedTick(now, 0))
}

func TestIsWorkTime(t *testing.T) {
	s := New(config.ReminderConfig{WorkStart: "08:00", WorkEnd: "18:00", WorkDays: []int{1, 2, 3, 4, 5}}, staticSource{}, &recordingNotifier{}, nil,
		WithPIDFile(filepath.Join(t.TempDir(), "pid")))

	vienna := stats.Location()
	assert.True(t, s.isWorkTime(time.Date(2026, 3, 4, 9, 0, 0, 0, vienna)))
	assert.False(t, s.isWorkTime(time.Date(2026, 3, 4, 7, 59, 0, 0, vienna)))
	assert.False(t, s.isWorkTime(time.Date(2026, 3, 4, 18, 1, 0, 0, vienna)))
	assert.False(t, s.isWorkTime(time.Date(2026, 3, 8, 9, 0, 0, 0, vienna)), "Sunday")
}

func TestIsWorkTime_UsesViennaCalendar(t *testing.T) {
	s := New(config.ReminderConfig{WorkStart: "08:00", WorkEnd: "18:00", WorkDays: []int{1, 2, 3, 4, 5}}, staticSource{}, &recordingNotifier{}, nil,
		WithPIDFile(filepath.Join(t.TempDir(), "pid")))

	// 07:30 UTC is 08:30 in Vienna (CET).
	assert.True(t, s.isWorkTime(time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC)))
	// 17:30 UTC is 18:30 in Vienna.
	assert.False(t, s.isWorkTime(time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC)))
	// Summer time: 06:30 UTC is 08:30 CEST.
	assert.True(t, s.isWorkTime(time.Date(2026, 7, 1, 6, 30, 0, 0, time.UTC)))

	allDay := New(config.ReminderConfig{WorkStart: "00:00", WorkEnd: "23:59", WorkDays: []int{1}}, staticSource{}, &recordingNotifier{}, nil,
		WithPIDFile(filepath.Join(t.TempDir(), "pid")))
	// Sunday 23:30 UTC is already Monday in Vienna.
	assert.True(t, allDay.isWorkTime(time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC)))
}

func TestReadPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid")
	_, err := readPIDFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0644))
	pid, err := readPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

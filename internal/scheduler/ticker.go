// Package scheduler sends desktop reminders while a timer runs.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/stempel/internal/config"
	"github.com/christopherklint97/stempel/internal/stats"
	"github.com/christopherklint97/stempel/internal/tracker"
)

// Snapshotter is the part of the tracker the scheduler reads.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*tracker.Snapshot, error)
}

type Scheduler struct {
	cfg     config.ReminderConfig
	source  Snapshotter
	notify  Notifier
	logger  *slog.Logger
	now     func() time.Time
	pidFile string
	sent    map[string]bool
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithPIDFile(path string) Option {
	return func(s *Scheduler) { s.pidFile = path }
}

func New(cfg config.ReminderConfig, source Snapshotter, notify Notifier, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if notify == nil {
		notify = DesktopNotifier{}
	}
	s := &Scheduler{
		cfg:    cfg,
		source: source,
		notify: notify,
		logger: logger,
		now:    time.Now,
		sent:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pidFile == "" {
		if path, err := pidPath(); err == nil {
			s.pidFile = path
		}
	}
	return s
}

func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer s.removePID()

	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute

	s.logger.Info("reminders started", "interval", interval, "work_start", s.cfg.WorkStart, "work_end", s.cfg.WorkEnd)

	for {
		nextTick := nextAlignedTick(s.now(), interval)
		s.logger.Debug("next check", "at", nextTick.Format("15:04"))

		timer := time.NewTimer(nextTick.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("reminders stopped")
			return nil
		case <-timer.C:
		}

		if !s.isWorkTime(s.now()) {
			continue
		}
		s.Check(ctx)
	}
}

// Check loads a snapshot and sends every reminder that has become due.
func (s *Scheduler) Check(ctx context.Context) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		s.logger.Error("loading snapshot", "error", err)
		return
	}

	for _, r := range Due(snap, s.sent) {
		s.sent[r.Key] = true
		if !s.cfg.Notify {
			s.logger.Info("reminder", "title", r.Title, "message", r.Message)
			continue
		}
		if err := s.notify.Notify(r.Title, r.Message); err != nil {
			s.logger.Warn("sending notification", "key", r.Key, "error", err)
		}
	}
}

// Reminder is one notification, sent at most once per Key.
type Reminder struct {
	Key     string
	Title   string
	Message string
}

// Due lists the reminders snap calls for that are not in sent: a break
// reminder once per running entry past the pause threshold, and a target
// reminder once per ISO week when week time plus live time reaches it.
func Due(snap *tracker.Snapshot, sent map[string]bool) []Reminder {
	var due []Reminder

	if snap.Running != nil && snap.Elapsed >= stats.PauseThreshold {
		key := "pause:" + snap.Running.ID
		if !sent[key] {
			due = append(due, Reminder{
				Key:     key,
				Title:   "stempel",
				Message: fmt.Sprintf("Running for %s. Time for a break.", stats.FormatShort(snap.Elapsed)),
			})
		}
	}

	sum := snap.Summary
	if sum.KWSeconds+snap.Elapsed >= stats.WeeklyTarget {
		key := fmt.Sprintf("target:%d-W%02d", sum.ISOYear, sum.ISOWeek)
		if !sent[key] {
			due = append(due, Reminder{
				Key:     key,
				Title:   "stempel",
				Message: fmt.Sprintf("Weekly target of %s reached for KW %d.", stats.FormatShort(stats.WeeklyTarget), sum.ISOWeek),
			})
		}
	}

	return due
}

func nextAlignedTick(now time.Time, interval time.Duration) time.Time {
	mins := int(interval.Minutes())
	if mins <= 0 {
		mins = 60
	}

	currentMinute := now.Minute()
	nextMinute := ((currentMinute / mins) + 1) * mins

	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	next = next.Add(time.Duration(nextMinute) * time.Minute)

	return next
}

// isWorkTime checks work days and hours on the same calendar as the week totals.
func (s *Scheduler) isWorkTime(t time.Time) bool {
	t = t.In(stats.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}

	isWorkDay := false
	for _, d := range s.cfg.WorkDays {
		if d == weekday {
			isWorkDay = true
			break
		}
	}
	if !isWorkDay {
		return false
	}

	startH, startM := parseTime(s.cfg.WorkStart, 8)
	endH, endM := parseTime(s.cfg.WorkEnd, 18)

	nowMins := t.Hour()*60 + t.Minute()
	startMins := startH*60 + startM
	endMins := endH*60 + endM

	return nowMins >= startMins && nowMins <= endMins
}

func parseTime(s string, fallbackHour int) (int, int) {
	if len(s) == 5 && s[2] == ':' {
		h, _ := strconv.Atoi(s[:2])
		m, _ := strconv.Atoi(s[3:])
		return h, m
	}
	return fallbackHour, 0
}

func pidPath() (string, error) {
	return config.DataPath("stempel-remind.pid")
}

func (s *Scheduler) writePID() error {
	if s.pidFile == "" {
		return fmt.Errorf("no PID file location")
	}
	return os.WriteFile(s.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (s *Scheduler) removePID() {
	os.Remove(s.pidFile)
}

// ReadPID returns the pid of a running `remind run`.
func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}
	return readPIDFile(path)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running reminder process found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carbon/internal/domain"
)

// UserDataSaver persists footprint state for the current session.
type UserDataSaver interface {
	SaveUserData(ctx context.Context, f domain.Footprint, h domain.History) error
}

// sessionLocker is implemented by savers whose target user can change
// between mutations.
type sessionLocker interface {
	SessionLock() sync.Locker
}

// NoticeKind is the severity of a user-facing notice.
type NoticeKind string

// Notice kinds.
const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
)

// Notice is the transient message a presentation layer shows after an
// operation succeeds.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Snapshot is a read-only view of the tracker state.
type Snapshot struct {
	Footprint domain.Footprint
	Total     float64
	Level     domain.Level
	Progress  float64
	History   domain.History
}

// Tracker owns the footprint of the active user.
type Tracker struct {
	mu        sync.Mutex
	footprint domain.Footprint
	history   domain.History

	saver   UserDataSaver
	session sync.Locker
	metrics Recorder
	now     func() time.Time
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithTrackerMetrics sets the metrics recorder.
func WithTrackerMetrics(r Recorder) TrackerOption {
	return func(t *Tracker) { t.metrics = r }
}

// NewTracker creates an empty tracker that persists through saver.
func NewTracker(saver UserDataSaver, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		history: domain.History{},
		saver:   saver,
		metrics: nopRecorder{},
		now:     time.Now,
	}
	if l, ok := saver.(sessionLocker); ok {
		t.session = l.SessionLock()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// lock takes the session lock, when there is one, before t.mu. Session
// switches take them in the same order.
func (t *Tracker) lock() func() {
	if t.session != nil {
		t.session.Lock()
	}
	t.mu.Lock()
	return func() {
		t.mu.Unlock()
		if t.session != nil {
			t.session.Unlock()
		}
	}
}

// AddActivity records one more unit of c.
func (t *Tracker) AddActivity(ctx context.Context, c domain.Category) (Notice, error) {
	if !c.Valid() {
		return Notice{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}

	defer t.lock()()

	next := t.footprint
	count := next.Increment(c)
	history := t.history.Prepend(domain.NewActivityEntry(domain.EntryAdd, c, count, t.now()))

	if err := t.commit(ctx, next, history); err != nil {
		return Notice{}, err
	}
	t.metrics.RecordActivity(domain.EntryAdd, c)
	return Notice{Kind: NoticeSuccess, Message: fmt.Sprintf("%s Added: %s", c.Icon(), c.Label())}, nil
}

// RemoveActivity takes one unit of c back. It reports false and changes
// nothing when the count is already zero.
func (t *Tracker) RemoveActivity(ctx context.Context, c domain.Category) (Notice, bool, error) {
	if !c.Valid() {
		return Notice{}, false, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}

	defer t.lock()()

	next := t.footprint
	count, ok := next.Decrement(c)
	if !ok {
		return Notice{}, false, nil
	}
	history := t.history.Prepend(domain.NewActivityEntry(domain.EntryRemove, c, count, t.now()))

	if err := t.commit(ctx, next, history); err != nil {
		return Notice{}, false, err
	}
	t.metrics.RecordActivity(domain.EntryRemove, c)
	return Notice{Kind: NoticeInfo, Message: fmt.Sprintf("%s Removed: %s", c.Icon(), c.Label())}, true, nil
}

// ResetPeriod logs the discarded total and zeroes every category.
// Confirmation is up to the caller.
func (t *Tracker) ResetPeriod(ctx context.Context) (Notice, error) {
	defer t.lock()()

	history := t.history.Prepend(domain.NewResetEntry(t.footprint.Total(), t.now()))
	if err := t.commit(ctx, domain.Footprint{}, history); err != nil {
		return Notice{}, err
	}
	t.metrics.RecordActivity(domain.EntryReset, "")
	return Notice{Kind: NoticeInfo, Message: "Period data has been reset"}, nil
}

// commit persists the next state and adopts it only if that succeeded.
// The caller holds t.mu.
func (t *Tracker) commit(ctx context.Context, f domain.Footprint, h domain.History) error {
	if t.saver != nil {
		if err := t.saver.SaveUserData(ctx, f, h); err != nil {
			return err
		}
	}
	t.footprint = f
	t.history = h
	return nil
}

// CalculateTotal returns the current footprint in kg CO2.
func (t *Tracker) CalculateTotal() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.footprint.Total()
}

// LoadUserData replaces the tracked state wholesale.
func (t *Tracker) LoadUserData(f domain.Footprint, h domain.History) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.footprint = f
	t.history = h.Normalize()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.footprint.Total()
	return Snapshot{
		Footprint: t.footprint,
		Total:     total,
		Level:     domain.LevelFor(total),
		Progress:  domain.ProgressPercent(total),
		History:   t.history.Normalize(),
	}
}

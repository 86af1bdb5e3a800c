// Package debounce coalesces bursts of input into a single "settled" event
// fired after a quiet period.
package debounce

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDelay is the quiet period used for search inputs.
const DefaultDelay = 750 * time.Millisecond

// Debouncer owns one pending timer. Every Trigger resets it; only the last
// function passed before the quiet period elapses runs.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// New creates a debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, cancelling any function scheduled earlier.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels the pending function. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// SettledMsg is delivered to a bubbletea model when a keyed input has been
// quiet for the tracker's delay.
type SettledMsg struct {
	Key   string
	Seq   int
	Value string
}

// Tracker is the bubbletea flavour of Debouncer. Models cannot own timers, so
// each Schedule returns a tick command tagged with a sequence number, and
// Settled tells the model whether a delivered tick is still the latest one
// for its key.
type Tracker struct {
	delay time.Duration
	seq   map[string]int
}

// NewTracker creates a tracker with the given quiet period.
func NewTracker(delay time.Duration) *Tracker {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Tracker{delay: delay, seq: make(map[string]int)}
}

// Delay returns the quiet period.
func (t *Tracker) Delay() time.Duration { return t.delay }

// Schedule restarts the quiet period for key.
func (t *Tracker) Schedule(key, value string) tea.Cmd {
	t.seq[key]++
	msg := SettledMsg{Key: key, Seq: t.seq[key], Value: value}
	return tea.Tick(t.delay, func(time.Time) tea.Msg {
		return msg
	})
}

// Settled reports whether msg is the latest scheduled tick for its key.
func (t *Tracker) Settled(msg SettledMsg) bool {
	return t.seq[msg.Key] == msg.Seq
}

// Cancel invalidates any tick in flight for key.
func (t *Tracker) Cancel(key string) {
	t.seq[key]++
}

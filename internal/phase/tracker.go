// Package phase runs the studio's simulated multi-step operations and keeps
// the observable progress of each one.
package phase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"charmstudio/internal/events"
)

// ErrInFlight is returned when an operation is started for a target that
// already has one running.
var ErrInFlight = errors.New("operation already in flight")

// Kind names an operation.
type Kind string

const (
	KindForge     Kind = "forge"
	KindProve     Kind = "prove"
	KindBroadcast Kind = "broadcast"
	KindBeam      Kind = "beam"
)

// Key identifies one operation: what is being done and to what. Target is a
// charm id, or a request id for forge.
type Key struct {
	Kind   Kind
	Target string
}

func (k Key) String() string { return string(k.Kind) + ":" + k.Target }

// LogEntry is one line of operation output. Seed lines carry no timestamp.
type LogEntry struct {
	Time    time.Time `json:"time,omitempty"`
	Message string    `json:"message"`
}

// String renders the entry the way the studio terminal prints it.
func (e LogEntry) String() string {
	if e.Time.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// State is the observable status of an operation.
type State struct {
	Key          Key        `json:"-"`
	Operation    string     `json:"operation,omitempty"`
	IsGenerating bool       `json:"isGenerating"`
	Step         string     `json:"step"`
	Progress     int        `json:"progress"`
	Logs         []LogEntry `json:"logs"`
	StartedAt    time.Time  `json:"startedAt,omitempty"`
	FinishedAt   time.Time  `json:"finishedAt,omitempty"`
}

// Lines returns the rendered log lines.
func (s State) Lines() []string {
	out := make([]string, len(s.Logs))
	for i, e := range s.Logs {
		out[i] = e.String()
	}
	return out
}

func (s State) clone() State {
	s.Logs = append([]LogEntry(nil), s.Logs...)
	return s
}

// defaultHistory bounds how many finished operations are remembered.
const defaultHistory = 64

// Tracker owns the state of every operation. Each run writes only to its own
// entry, so concurrent runs never overwrite each other's progress or logs.
type Tracker struct {
	mu      sync.RWMutex
	ops     map[Key]*State
	started []Key // start order, oldest first
	pub     events.Publisher
	now     func() time.Time
	history int
}

// NewTracker creates a tracker publishing to pub (may be nil).
func NewTracker(pub events.Publisher) *Tracker {
	if pub == nil {
		pub = events.Discard
	}
	return &Tracker{
		ops:     make(map[Key]*State),
		pub:     pub,
		now:     time.Now,
		history: defaultHistory,
	}
}

// Start begins a fresh operation with its phase-specific step label, starting
// progress and seed log. It fails with ErrInFlight if any operation for the
// same target is still running.
func (t *Tracker) Start(key Key, step string, progress int, seed []string) error {
	t.mu.Lock()
	for k, st := range t.ops {
		if k.Target == key.Target && st.IsGenerating {
			t.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrInFlight, k)
		}
	}

	logs := make([]LogEntry, len(seed))
	for i, line := range seed {
		logs[i] = LogEntry{Message: line}
	}
	t.ops[key] = &State{
		Key:          key,
		Operation:    key.String(),
		IsGenerating: true,
		Step:         step,
		Progress:     clampPercent(progress),
		Logs:         logs,
		StartedAt:    t.now(),
	}
	t.touch(key)
	t.pruneLocked()
	t.mu.Unlock()

	t.pub.Publish(events.Event{
		Kind:      events.KindOperationStarted,
		Operation: key.String(),
		CharmID:   charmID(key),
		Progress:  progress,
		Message:   step,
	})
	return nil
}

// Log appends a timestamped line to the operation's log.
func (t *Tracker) Log(key Key, message string) {
	t.mu.Lock()
	st, ok := t.ops[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	st.Logs = append(st.Logs, LogEntry{Time: t.now(), Message: message})
	t.mu.Unlock()

	t.pub.Publish(events.Event{
		Kind:      events.KindOperationLog,
		Operation: key.String(),
		CharmID:   charmID(key),
		Message:   message,
	})
}

// SetStep replaces the operation's step label.
func (t *Tracker) SetStep(key Key, step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.ops[key]; ok {
		st.Step = step
	}
}

// SetProgress moves progress to p. Progress never goes backwards within a run.
func (t *Tracker) SetProgress(key Key, p int) int {
	return t.updateProgress(key, func(cur int) int { return p })
}

// Advance adds delta to progress without exceeding ceiling.
func (t *Tracker) Advance(key Key, delta, ceiling int) int {
	return t.updateProgress(key, func(cur int) int {
		next := cur + delta
		if next > ceiling {
			next = ceiling
		}
		return next
	})
}

func (t *Tracker) updateProgress(key Key, next func(int) int) int {
	t.mu.Lock()
	st, ok := t.ops[key]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	p := clampPercent(next(st.Progress))
	if p < st.Progress {
		p = st.Progress
	}
	st.Progress = p
	t.mu.Unlock()

	t.pub.Publish(events.Event{
		Kind:      events.KindOperationProgress,
		Operation: key.String(),
		CharmID:   charmID(key),
		Progress:  p,
	})
	return p
}

// Finish marks the operation as no longer generating.
func (t *Tracker) Finish(key Key) {
	t.mu.Lock()
	st, ok := t.ops[key]
	if !ok || !st.IsGenerating {
		t.mu.Unlock()
		return
	}
	st.IsGenerating = false
	st.FinishedAt = t.now()
	progress := st.Progress
	t.mu.Unlock()

	t.pub.Publish(events.Event{
		Kind:      events.KindOperationFinished,
		Operation: key.String(),
		CharmID:   charmID(key),
		Progress:  progress,
	})
}

// Operation returns a copy of one operation's state.
func (t *Tracker) Operation(key Key) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.ops[key]
	if !ok {
		return State{}, false
	}
	return st.clone(), true
}

// InFlight reports whether target has a running operation.
func (t *Tracker) InFlight(target string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, st := range t.ops {
		if k.Target == target && st.IsGenerating {
			return true
		}
	}
	return false
}

// Active returns the running operations, oldest first.
func (t *Tracker) Active() []State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []State
	for _, k := range t.started {
		if st := t.ops[k]; st != nil && st.IsGenerating {
			out = append(out, st.clone())
		}
	}
	return out
}

// Current is the joined read model the presentation renders: the most
// recently started operation's step, progress and logs, with IsGenerating
// true while any operation is running. The zero State means nothing has run.
func (t *Tracker) Current() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.started) == 0 {
		return State{Logs: []LogEntry{}}
	}
	latest := t.ops[t.started[len(t.started)-1]].clone()
	latest.IsGenerating = false
	for _, st := range t.ops {
		if st.IsGenerating {
			latest.IsGenerating = true
			break
		}
	}
	return latest
}

// touch moves key to the newest position in start order.
func (t *Tracker) touch(key Key) {
	for i, k := range t.started {
		if k == key {
			t.started = append(t.started[:i], t.started[i+1:]...)
			break
		}
	}
	t.started = append(t.started, key)
}

// pruneLocked forgets the oldest finished operations beyond the history bound.
func (t *Tracker) pruneLocked() {
	excess := len(t.started) - t.history
	if excess <= 0 {
		return
	}
	kept := t.started[:0]
	for _, k := range t.started {
		if excess > 0 && !t.ops[k].IsGenerating {
			delete(t.ops, k)
			excess--
			continue
		}
		kept = append(kept, k)
	}
	t.started = kept
}

func charmID(k Key) string {
	if k.Kind == KindForge {
		return ""
	}
	return k.Target
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

package phase

import (
	"context"
	"fmt"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/logging"
)

// Step is one timed line of a phase.
type Step struct {
	Message  string
	Progress int
}

// Phase describes a simulated operation as data: what to show when it starts,
// the ordered steps, the wait after each one, and the single state change
// applied to the charm when it completes.
type Phase struct {
	Kind          Kind
	Step          string
	Seed          []string
	StartProgress int
	Delay         time.Duration
	Steps         []Step

	// Mutate maps the charm to its post-completion value. It must be pure.
	Mutate func(charm.Charm) charm.Charm
}

// FinalProgress is the progress a completed run ends at.
func (p Phase) FinalProgress() int {
	if len(p.Steps) == 0 {
		return p.StartProgress
	}
	return p.Steps[len(p.Steps)-1].Progress
}

// Applier applies a mutation to one stored charm.
type Applier interface {
	Update(id string, mutate func(charm.Charm) charm.Charm) (charm.Charm, error)
}

// WaitFunc suspends for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Runner interprets phases against a charm store.
type Runner struct {
	tracker *Tracker
	store   Applier
	wait    WaitFunc
}

// NewRunner creates a runner. A nil wait uses a real timer.
func NewRunner(tracker *Tracker, store Applier, wait WaitFunc) *Runner {
	if wait == nil {
		wait = Sleep
	}
	return &Runner{tracker: tracker, store: store, wait: wait}
}

// Sleep waits for d, returning early with ctx's error if it is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pending is a run that has claimed its charm but not yet executed. Wait
// must be called exactly once; until then the charm stays in flight.
type Pending struct {
	runner  *Runner
	charmID string
	key     Key
	phase   Phase
}

// Key returns the tracker key of the run.
func (p *Pending) Key() Key { return p.key }

// Start claims charmID for p and seeds its operation state. It fails with
// ErrInFlight if the charm already has a run in progress.
func (r *Runner) Start(charmID string, p Phase) (*Pending, error) {
	key := Key{Kind: p.Kind, Target: charmID}
	if err := r.tracker.Start(key, p.Step, p.StartProgress, p.Seed); err != nil {
		return nil, err
	}
	return &Pending{runner: r, charmID: charmID, key: key, phase: p}, nil
}

// Run executes p for the charm with the given id: steps strictly in order,
// each logged and followed by p.Delay, then exactly one Mutate. A phase with
// no steps waits once. If ctx is cancelled mid-run nothing is mutated.
func (r *Runner) Run(ctx context.Context, charmID string, p Phase) (charm.Charm, error) {
	pending, err := r.Start(charmID, p)
	if err != nil {
		return charm.Charm{}, err
	}
	return pending.Wait(ctx)
}

// Wait executes the claimed run and releases the charm when done.
func (pr *Pending) Wait(ctx context.Context) (charm.Charm, error) {
	r, key, p := pr.runner, pr.key, pr.phase
	defer r.tracker.Finish(key)

	log := logging.Get(logging.CategoryPhase).With("op", key.String())
	timer := logging.StartTimer(logging.CategoryPhase, key.String())
	defer timer.Stop()
	log.Debug("started %q with %d steps", p.Step, len(p.Steps))

	if len(p.Steps) == 0 {
		if err := r.wait(ctx, p.Delay); err != nil {
			return r.abort(key, err)
		}
	}
	for i, step := range p.Steps {
		r.tracker.Log(key, step.Message)
		r.tracker.SetProgress(key, step.Progress)
		log.Debug("step %d/%d at %d%%", i+1, len(p.Steps), step.Progress)
		if err := r.wait(ctx, p.Delay); err != nil {
			return r.abort(key, err)
		}
	}

	updated, err := r.store.Update(pr.charmID, p.Mutate)
	if err != nil {
		r.tracker.Log(key, "ERROR: "+err.Error())
		log.Warn("mutation rejected: %v", err)
		return charm.Charm{}, fmt.Errorf("%s %s: %w", p.Kind, pr.charmID, err)
	}

	log.Info("completed, charm now %s", updated.Status)
	return updated, nil
}

func (r *Runner) abort(key Key, cause error) (charm.Charm, error) {
	r.tracker.Log(key, "ABORTED: "+cause.Error())
	logging.PhaseWarn("%s aborted: %v", key, cause)
	return charm.Charm{}, fmt.Errorf("%s aborted: %w", key, cause)
}

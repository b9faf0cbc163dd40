// Package studio is the command surface of Charms Studio. Presentation layers
// issue forge, prove, broadcast and beam commands here and render from View
// snapshots; the service owns the charm store and the operation tracker.
package studio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/config"
	"charmstudio/internal/events"
	"charmstudio/internal/generation"
	"charmstudio/internal/logging"
	"charmstudio/internal/phase"
	"charmstudio/internal/store"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for an unknown charm id.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidTransition is returned when a command does not fit the
	// charm's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrOperationInFlight is returned when the charm already has a run going.
	ErrOperationInFlight = phase.ErrInFlight
	// ErrGenerationFailed wraps any generation backend failure during forge.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrInvalidType is returned when forging with an unknown charm type.
	ErrInvalidType = errors.New("invalid charm type")
)

// Options configures a Service.
type Options struct {
	Generator generation.Generator
	Publisher events.Publisher
	Phases    config.PhaseConfig
	Wallet    charm.Wallet

	// Wait replaces the real timer between phase steps; tests pass a no-op.
	Wait phase.WaitFunc

	NewID func() string
	Now   func() time.Time
}

// View is a consistent read of everything the presentation renders.
type View struct {
	Charms     []charm.Charm `json:"charms"`
	Generation phase.State   `json:"generation"`
	Active     []phase.State `json:"active"`
	Wallet     charm.Wallet  `json:"wallet"`
	AppID      string        `json:"appId"`
}

// Service executes studio commands.
type Service struct {
	gen     generation.Generator
	store   *store.CharmStore
	tracker *phase.Tracker
	runner  *phase.Runner
	appID   string
	newID   func() string
	now     func() time.Time

	// cmdMu makes precondition checks and run claims atomic.
	cmdMu sync.Mutex

	mu     sync.RWMutex
	phases config.PhaseConfig
	wallet charm.Wallet
}

// New creates a service with an empty store.
func New(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("studio: generator is required")
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Discard
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Wallet.ChangeAddress == "" {
		opts.Wallet = charm.DefaultWallet()
	}

	st := store.NewCharmStore(opts.Publisher)
	tr := phase.NewTracker(opts.Publisher)
	s := &Service{
		gen:     opts.Generator,
		store:   st,
		tracker: tr,
		runner:  phase.NewRunner(tr, st, opts.Wait),
		appID:   charm.AppID(),
		newID:   opts.NewID,
		now:     opts.Now,
		phases:  opts.Phases,
		wallet:  opts.Wallet,
	}
	logging.Boot("studio service ready: generator=%s app_id=%s", s.gen.Name(), s.appID)
	return s, nil
}

// SetPhases swaps the phase timing for runs started afterwards.
func (s *Service) SetPhases(p config.PhaseConfig) {
	s.mu.Lock()
	s.phases = p
	s.mu.Unlock()
}

// SetWallet swaps the wallet whose change address future proofs stamp.
func (s *Service) SetWallet(w charm.Wallet) {
	s.mu.Lock()
	s.wallet = w
	s.mu.Unlock()
}

// Wallet returns the active wallet.
func (s *Service) Wallet() charm.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

// AppID returns the studio app identity.
func (s *Service) AppID() string { return s.appID }

// Generator returns the generation backend in use.
func (s *Service) Generator() generation.Generator { return s.gen }

// Snapshot returns the current view.
func (s *Service) Snapshot() View {
	return View{
		Charms:     s.store.List(),
		Generation: s.tracker.Current(),
		Active:     s.tracker.Active(),
		Wallet:     s.Wallet(),
		AppID:      s.appID,
	}
}

// Charms returns every charm in creation order.
func (s *Service) Charms() []charm.Charm { return s.store.List() }

// Charm returns one charm.
func (s *Service) Charm(id string) (charm.Charm, error) { return s.store.Get(id) }

// Generation returns the joined generation state.
func (s *Service) Generation() phase.State { return s.tracker.Current() }

// Operation returns the state of one run.
func (s *Service) Operation(key phase.Key) (phase.State, bool) { return s.tracker.Operation(key) }

package studio

import (
	"context"
	"fmt"

	"charmstudio/internal/charm"
	"charmstudio/internal/logging"
	"charmstudio/internal/phase"
)

// BeginProve claims a draft charm for proving. The returned run must be
// waited on exactly once.
func (s *Service) BeginProve(id string) (*phase.Pending, error) {
	s.mu.RLock()
	params := phase.ProveParams{
		AppID:        s.appID,
		VK:           charm.StudioVK,
		OwnerAddress: s.wallet.ChangeAddress,
		Delay:        s.phases.GetProveStepDelay(),
	}
	s.mu.RUnlock()

	p, err := phase.Prove(params)
	if err != nil {
		return nil, err
	}
	return s.begin(id, p, func(c charm.Charm) error {
		return requireStatus(c, charm.StatusDraft)
	})
}

// BeginBroadcast claims a proven charm for broadcasting.
func (s *Service) BeginBroadcast(id string) (*phase.Pending, error) {
	s.mu.RLock()
	delay := s.phases.GetBroadcastDelay()
	s.mu.RUnlock()

	return s.begin(id, phase.Broadcast(delay), func(c charm.Charm) error {
		return requireStatus(c, charm.StatusReadyToBroadcast)
	})
}

// BeginBeam claims a minted charm for beaming to target.
func (s *Service) BeginBeam(id string, target charm.Chain) (*phase.Pending, error) {
	if _, err := charm.ParseChain(string(target)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	s.mu.RLock()
	delay := s.phases.GetBeamStepDelay()
	s.mu.RUnlock()

	return s.begin(id, phase.Beam(target, delay), func(c charm.Charm) error {
		if err := requireStatus(c, charm.StatusMinted); err != nil {
			return err
		}
		if c.CurrentChain == target {
			return fmt.Errorf("%w: charm %s is already on %s", ErrInvalidTransition, c.ID, target)
		}
		return nil
	})
}

// Prove runs the prove phase on a draft charm and returns the updated charm.
func (s *Service) Prove(ctx context.Context, id string) (charm.Charm, error) {
	p, err := s.BeginProve(id)
	if err != nil {
		return charm.Charm{}, err
	}
	return p.Wait(ctx)
}

// Broadcast runs the broadcast phase on a ready_to_broadcast charm.
func (s *Service) Broadcast(ctx context.Context, id string) (charm.Charm, error) {
	p, err := s.BeginBroadcast(id)
	if err != nil {
		return charm.Charm{}, err
	}
	return p.Wait(ctx)
}

// Beam runs the beam phase on a minted charm.
func (s *Service) Beam(ctx context.Context, id string, target charm.Chain) (charm.Charm, error) {
	p, err := s.BeginBeam(id, target)
	if err != nil {
		return charm.Charm{}, err
	}
	return p.Wait(ctx)
}

func (s *Service) begin(id string, p phase.Phase, check func(charm.Charm) error) (*phase.Pending, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	c, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if s.tracker.InFlight(id) {
		return nil, fmt.Errorf("%w: charm %s", ErrOperationInFlight, id)
	}
	if err := check(c); err != nil {
		logging.PhaseDebug("%s rejected for %s: %v", p.Kind, id, err)
		return nil, err
	}
	pending, err := s.runner.Start(id, p)
	if err != nil {
		return nil, err
	}
	logging.Phase("%s started for charm %s", p.Kind, id)
	return pending, nil
}

func requireStatus(c charm.Charm, want charm.Status) error {
	if c.Status != want {
		return fmt.Errorf("%w: charm %s is %s, needs %s", ErrInvalidTransition, c.ID, c.Status, want)
	}
	return nil
}

package studio

import (
	"context"
	"fmt"
	"strings"

	"charmstudio/internal/charm"
	"charmstudio/internal/logging"
	"charmstudio/internal/phase"
)

const (
	forgeStep          = "Enchanting UTXO..."
	forgeStartProgress = 10
	forgeSeed          = "Initiating client-side validation logic..."

	// forgeAdvance and forgeCeiling shape progress while the backend reports.
	forgeAdvance = 15
	forgeCeiling = 95

	forgeSuccessLog = "Artifact enchanted with recursive ZK proof metadata."
	forgeFailureLog = "ERROR: Reasoning sync failed."
)

type forgeOptions struct {
	override string
}

// ForgeOption tunes a forge request.
type ForgeOption func(*forgeOptions)

// WithOverride replaces the typed prompt with p when p is not blank.
func WithOverride(p string) ForgeOption {
	return func(o *forgeOptions) { o.override = p }
}

// ReasoningContext is the text sent to the generator for a forge request.
func ReasoningContext(t charm.Type, prompt string) string {
	return fmt.Sprintf("Protocol Context: %s.\n"+
		"Whitepaper goals: client-side validation, recursive proofs, unchained portability.\n"+
		"Use Case: %s.\n"+
		"Format the response in structured, professional Markdown.", t, prompt)
}

// Forge generates a new draft charm from prompt. A blank prompt is a no-op
// and returns (nil, nil). On generation failure nothing is stored, the
// operation log gains one failure line, and the error wraps
// ErrGenerationFailed.
func (s *Service) Forge(ctx context.Context, prompt string, t charm.Type, opts ...ForgeOption) (*charm.Charm, error) {
	var o forgeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(o.override) != "" {
		prompt = o.override
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, nil
	}
	if _, err := charm.ParseType(string(t)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidType, err)
	}

	key := phase.Key{Kind: phase.KindForge, Target: s.newID()}
	if err := s.tracker.Start(key, forgeStep, forgeStartProgress, []string{forgeSeed}); err != nil {
		return nil, err
	}
	defer s.tracker.Finish(key)

	timer := logging.StartTimer(logging.CategoryForge, key.String())
	defer timer.Stop()
	logging.Forge("forge %s: type=%s backend=%s", key.Target, t, s.gen.Name())

	result, err := s.gen.Generate(ctx, ReasoningContext(t, prompt), func(label string) {
		s.tracker.Log(key, label)
		s.tracker.SetStep(key, label)
		p := s.tracker.Advance(key, forgeAdvance, forgeCeiling)
		logging.ForgeDebug("forge %s: %s (%d%%)", key.Target, label, p)
	})
	if err != nil {
		s.tracker.Log(key, forgeFailureLog)
		logging.ForgeError("forge %s failed: %v", key.Target, err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	c := charm.Charm{
		ID:           s.newID(),
		Type:         t,
		Title:        charm.TitleFromPrompt(prompt),
		Content:      result.Content,
		Sources:      result.Sources,
		CreatedAt:    s.now(),
		Status:       charm.StatusDraft,
		CurrentChain: charm.ChainBitcoin,
	}
	if err := s.store.Add(c); err != nil {
		s.tracker.Log(key, forgeFailureLog)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	s.tracker.Log(key, forgeSuccessLog)

	logging.Forge("forge %s: created charm %s %q with %d sources", key.Target, c.ID, c.Title, len(c.Sources))
	return &c, nil
}

package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charmstudio/internal/charm"
)

// OfflineGenerator writes a deterministic charm description from the
// reasoning context alone. It lets the studio run without network access.
type OfflineGenerator struct {
	// Delay is waited between progress labels.
	Delay time.Duration
}

var offlineLabels = []string{
	"Parsing protocol context...",
	"Drafting spell specification...",
	"Composing whitepaper summary...",
}

var offlineSources = []charm.Source{
	{URI: "https://charms.dev", Title: "Charms Protocol"},
	{URI: "https://docs.charms.dev/concepts/spells/", Title: "Spells"},
}

// Generate builds Markdown from the "Protocol Context" and "Use Case" lines of
// prompt, falling back to the whole prompt when they are absent.
func (g OfflineGenerator) Generate(ctx context.Context, prompt string, onProgress ProgressFunc) (Result, error) {
	for _, label := range offlineLabels {
		report(onProgress, label)
		if err := sleep(ctx, g.Delay); err != nil {
			return Result{}, err
		}
	}

	protocol := field(prompt, "Protocol Context:")
	useCase := field(prompt, "Use Case:")
	if useCase == "" {
		useCase = strings.TrimSpace(prompt)
	}
	if useCase == "" {
		return Result{}, ErrEmptyPrompt
	}
	if protocol == "" {
		protocol = string(charm.TypeLogic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Charm\n\n", protocol)
	fmt.Fprintf(&b, "## Use Case\n\n%s\n\n", useCase)
	b.WriteString("## Spell Design\n\n")
	fmt.Fprintf(&b, "- **Protocol:** %s\n", protocol)
	b.WriteString("- **Validation:** client-side, no global state required\n")
	b.WriteString("- **Proofs:** recursive ZK proofs fold every prerequisite spell\n")
	b.WriteString("- **Portability:** unchained, beamable to Cardano and Dogecoin\n\n")
	b.WriteString("## Lifecycle\n\n")
	b.WriteString("1. Prove the spell against the funding UTXO.\n")
	b.WriteString("2. Broadcast the commit and spell transactions as one package.\n")
	b.WriteString("3. Beam the minted charm to another ledger when needed.\n")

	sources := make([]charm.Source, len(offlineSources))
	copy(sources, offlineSources)
	return Result{Content: b.String(), Sources: sources}, nil
}

// Name returns the backend name.
func (OfflineGenerator) Name() string { return "offline" }

// field returns the text after prefix on the first line that starts with it,
// without the trailing period.
func field(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSuffix(strings.TrimSpace(rest), ".")
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
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

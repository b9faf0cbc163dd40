package phase

import (
	"fmt"
	"time"

	"charmstudio/internal/charm"
	"charmstudio/internal/hashutil"
)

// ProveParams carries what the prove phase stamps onto a charm.
type ProveParams struct {
	AppID        string
	VK           string
	OwnerAddress string
	Delay        time.Duration
}

// Prove builds the proving phase. The transaction hex is drawn up front so
// Mutate stays pure.
func Prove(p ProveParams) (Phase, error) {
	commitHex, err := hashutil.RandomHex(64)
	if err != nil {
		return Phase{}, fmt.Errorf("prove: %w", err)
	}
	spellHex, err := hashutil.RandomHex(80)
	if err != nil {
		return Phase{}, fmt.Errorf("prove: %w", err)
	}
	commitTx := charm.CommitTxPrefix + commitHex
	spellTx := charm.SpellTxPrefix + spellHex
	txID := hashutil.SHA256Hex(spellTx)

	return Phase{
		Kind:          KindProve,
		Step:          "Casting Spell Proof",
		Seed:          []string{"$ charms spell prove --app-id=" + p.AppID},
		StartProgress: 0,
		Delay:         p.Delay,
		Steps: []Step{
			{Message: "Compiling Rust contract to RISC-V binary...", Progress: 20},
			{Message: "Generating recursive ZK-SNARK witness...", Progress: 45},
			{Message: "Verifying all pre-requisite transaction spells...", Progress: 70},
			{Message: "Finalizing Groth16 proof envelope...", Progress: 95},
		},
		Mutate: func(c charm.Charm) charm.Charm {
			c.Status = charm.StatusReadyToBroadcast
			c.CommitTx = commitTx
			c.SpellTx = spellTx
			c.TxID = txID
			c.AppID = p.AppID
			c.VK = p.VK
			c.OwnerAddress = p.OwnerAddress
			return c
		},
	}, nil
}

// Broadcast builds the broadcast phase: a single wait at 50%.
func Broadcast(delay time.Duration) Phase {
	return Phase{
		Kind:          KindBroadcast,
		Step:          "Inscribing to Bitcoin",
		Seed:          []string{"$ b submitpackage [commit_hex, spell_hex]"},
		StartProgress: 50,
		Delay:         delay,
		Mutate: func(c charm.Charm) charm.Charm {
			c.Status = charm.StatusMinted
			return c
		},
	}
}

// Beam builds the cross-chain phase toward target.
func Beam(target charm.Chain, delay time.Duration) Phase {
	return Phase{
		Kind:          KindBeam,
		Step:          fmt.Sprintf("Beaming to %s", target),
		Seed:          []string{fmt.Sprintf("Initiating cross-chain transport to %s...", target)},
		StartProgress: 0,
		Delay:         delay,
		Steps: []Step{
			{Message: fmt.Sprintf("Creating placeholder UTXO on %s...", target), Progress: 25},
			{Message: "Creating Beaming Spell on Bitcoin...", Progress: 50},
			{Message: "Constructing SHA256 mapping...", Progress: 75},
			{Message: "Materializing on target ledger...", Progress: 100},
		},
		Mutate: func(c charm.Charm) charm.Charm {
			c.Status = charm.StatusBeamed
			c.CurrentChain = target
			c.DestinationChain = target
			return c
		},
	}
}
